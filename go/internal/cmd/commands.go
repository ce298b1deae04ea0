package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcdev12/focusarcade/go/clients/arcade_client"
	"github.com/mcdev12/focusarcade/go/internal/celebration"
	"github.com/mcdev12/focusarcade/go/internal/ledger"
	"github.com/mcdev12/focusarcade/go/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

// NewServeCommand runs an HTTP server for r.
func NewServeCommand(opts *RootOptions, r role) *cobra.Command {
	short := map[role]string{
		roleAll:        "Run the controller and the display gateway in one process",
		roleController: "Run the controller page and API only",
		roleDisplay:    "Run a display session and its gateway only",
	}[r]

	return &cobra.Command{
		Use:   string(r),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := opts.Config
			if err := checkSplitRole(r, cfg); err != nil {
				return err
			}
			res, err := openResources(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer res.Close()

			if r == roleDisplay && res.Bus == nil {
				log.Warn().Msg("display running without a bus, triggers arrive by polling only")
			}

			services := setupServices(cfg, res, r)
			server, err := setupServer(cfg.HTTP.Port, services, cfg.HTTP.PublicURL)
			if err != nil {
				return err
			}

			var workers []func(context.Context)
			if services.Gateway != nil {
				workers = append(workers, services.Gateway.Start)
			}
			if services.Session != nil {
				workers = append(workers, func(ctx context.Context) {
					if err := services.Session.Run(ctx); err != nil {
						log.Error().Err(err).Msg("display session failed")
					}
				})
			}

			log.Info().
				Str("role", string(r)).
				Str("port", cfg.HTTP.Port).
				Str("store", cfg.Store.Driver).
				Str("bus", cfg.Bus.Driver).
				Msg("starting focus arcade")

			return runServer(ctx, server, workers...)
		},
	}
}

// ledgerOps is served by a local ledger or a remote controller.
type ledgerOps interface {
	Redeem(ctx context.Context, token string) (ledger.Redemption, error)
	AddOne(ctx context.Context) (models.ProgressSnapshot, error)
	Reset(ctx context.Context) (models.ProgressSnapshot, error)
	Progress(ctx context.Context) (models.ProgressSnapshot, error)
}

var (
	_ ledgerOps = (*ledger.Ledger)(nil)
	_ ledgerOps = (*arcade_client.ArcadeClient)(nil)
)

// withLedger runs fn against the remote controller when --server is set and
// otherwise against a ledger on the configured store.
func withLedger(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, l ledgerOps) error) error {
	ctx := cmd.Context()
	if opts.Server != "" {
		return fn(ctx, arcade_client.NewArcadeClient(opts.Server))
	}
	res, err := openResources(ctx, opts.Config, false)
	if err != nil {
		return err
	}
	defer res.Close()
	return fn(ctx, ledger.New(res.Store, opts.Config.Goal))
}

func NewRedeemCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "redeem <token>",
		Short: "Redeem a token for one progress step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, opts, func(ctx context.Context, l ledgerOps) error {
				red, err := l.Redeem(ctx, args[0])
				if err != nil {
					return err
				}
				var text string
				switch red.Reason {
				case ledger.ReasonRedeemed:
					text = fmt.Sprintf("Redeemed token: %s (%s)", red.Token, red.Progress.Label)
				case ledger.ReasonAlreadyUsed:
					text = fmt.Sprintf("Already used token: %s (%s)", red.Token, red.Progress.Label)
				default:
					text = "No token given (" + red.Progress.Label + ")"
				}
				return printResult(cmd, opts, red, text)
			})
		},
	}
}

func NewTapCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tap",
		Short: "Add one progress step without a token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, opts, func(ctx context.Context, l ledgerOps) error {
				snap, err := l.AddOne(ctx)
				if err != nil {
					return err
				}
				return printResult(cmd, opts, snap, "+1 Focus XP ("+snap.Label+")")
			})
		},
	}
}

func NewResetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear progress and forget used tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, opts, func(ctx context.Context, l ledgerOps) error {
				snap, err := l.Reset(ctx)
				if err != nil {
					return err
				}
				return printResult(cmd, opts, snap, "Reset ("+snap.Label+")")
			})
		},
	}
}

func NewProgressCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show current progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, opts, func(ctx context.Context, l ledgerOps) error {
				snap, err := l.Progress(ctx)
				if err != nil {
					return err
				}
				return printResult(cmd, opts, snap, snap.Label)
			})
		},
	}
}

func NewTriggerCommand(opts *RootOptions) *cobra.Command {
	var seconds, message string

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Publish a celebration to displays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rec, err := trigger(ctx, opts, celebration.TriggerRequest{
				Seconds: celebration.ParseSeconds(seconds),
				Message: message,
			})
			if err != nil {
				return err
			}
			return printResult(cmd, opts, rec, fmt.Sprintf("Triggered display for %s", rec.Duration()))
		},
	}

	cmd.Flags().StringVar(&seconds, "seconds", "", "duration in seconds (1-30, default 4)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "message shown under the animation")
	return cmd
}

func trigger(ctx context.Context, opts *RootOptions, req celebration.TriggerRequest) (models.TriggerRecord, error) {
	if opts.Server != "" {
		return arcade_client.NewArcadeClient(opts.Server).Trigger(ctx, req.Seconds, req.Message)
	}

	res, err := openResources(ctx, opts.Config, true)
	if err != nil {
		return models.TriggerRecord{}, err
	}
	defer res.Close()

	return celebration.NewApp(res.Store, res.Bus, nil).Trigger(ctx, req)
}

type mintResult struct {
	Token string `json:"token"`
	URL   string `json:"url"`
	QR    string `json:"qr,omitempty"`
}

func NewMintCommand(opts *RootOptions) *cobra.Command {
	var qrPath string
	var qrSize int

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a single-use token and print its redeem URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := mint(cmd.Context(), opts)
			if err != nil {
				return err
			}
			u := result.URL
			if qrPath != "" {
				if err := qrcode.WriteFile(u, qrcode.Medium, qrSize, qrPath); err != nil {
					return fmt.Errorf("failed to write QR code: %w", err)
				}
				result.QR = qrPath
			}

			text := u
			if result.QR != "" {
				text += "\nQR written to " + result.QR
			}
			return printResult(cmd, opts, result, text)
		},
	}

	cmd.Flags().StringVar(&qrPath, "qr", "", "write a QR code PNG of the redeem URL to this file")
	cmd.Flags().IntVar(&qrSize, "qr-size", 320, "QR code size in pixels")
	return cmd
}

// mint asks the controller when --server is set so the URL uses its public
// address; tokens need no server state until redeemed.
func mint(ctx context.Context, opts *RootOptions) (mintResult, error) {
	if opts.Server != "" {
		m, err := arcade_client.NewArcadeClient(opts.Server).Mint(ctx)
		if err != nil {
			return mintResult{}, err
		}
		return mintResult{Token: m.Token, URL: m.URL}, nil
	}

	token := ledger.NewToken()
	u, err := ledger.RedeemURL(opts.Config.HTTP.PublicURL, token)
	if err != nil {
		return mintResult{}, err
	}
	return mintResult{Token: token, URL: u}, nil
}

func printResult(cmd *cobra.Command, opts *RootOptions, v any, text string) error {
	out := cmd.OutOrStdout()
	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(out, text)
	return err
}
