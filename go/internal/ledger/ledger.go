package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/mcdev12/focusarcade/go/internal/kvstore"
	"github.com/mcdev12/focusarcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Reason explains a redemption outcome.
type Reason string

const (
	ReasonRedeemed    Reason = "redeemed"
	ReasonEmpty       Reason = "empty"
	ReasonAlreadyUsed Reason = "already_used"
)

// Redemption is the result of a Redeem call.
type Redemption struct {
	Token    string                  `json:"token"`
	Redeemed bool                    `json:"redeemed"`
	Reason   Reason                  `json:"reason"`
	Progress models.ProgressSnapshot `json:"progress"`
}

// Ledger is the local anti-replay guard for tokens and the owner of the
// progress counter. It is not a security boundary: clearing the store makes
// every token usable again.
type Ledger struct {
	store kvstore.Store
	goal  int

	// mu makes read-check-write of counter and token set one step within
	// this process.
	mu sync.Mutex
}

// New creates a ledger over store. A non-positive goal falls back to
// models.DefaultGoal.
func New(store kvstore.Store, goal int) *Ledger {
	if goal <= 0 {
		goal = models.DefaultGoal
	}
	return &Ledger{store: store, goal: goal}
}

// Goal returns the progress ceiling.
func (l *Ledger) Goal() int {
	return l.goal
}

// Redeem spends token for one progress step. Empty and already-used tokens
// change nothing.
func (l *Ledger) Redeem(ctx context.Context, token string) (Redemption, error) {
	token = strings.TrimSpace(token)

	l.mu.Lock()
	defer l.mu.Unlock()

	progress, err := l.readProgress(ctx)
	if err != nil {
		return Redemption{}, err
	}

	res := Redemption{Token: token}
	if token == "" {
		res.Reason = ReasonEmpty
		res.Progress = models.NewProgressSnapshot(progress, l.goal)
		return res, nil
	}

	used, err := l.readUsedTokens(ctx)
	if err != nil {
		return Redemption{}, err
	}
	for _, t := range used {
		if t == token {
			log.Info().Str("token", token).Msg("token already used")
			res.Reason = ReasonAlreadyUsed
			res.Progress = models.NewProgressSnapshot(progress, l.goal)
			return res, nil
		}
	}

	progress = min(l.goal, progress+1)
	used = append(used, token)
	if err := l.write(ctx, progress, used); err != nil {
		return Redemption{}, fmt.Errorf("failed to redeem token: %w", err)
	}

	log.Info().
		Str("token", token).
		Int("progress", progress).
		Int("goal", l.goal).
		Msg("token redeemed")

	res.Redeemed = true
	res.Reason = ReasonRedeemed
	res.Progress = models.NewProgressSnapshot(progress, l.goal)
	return res, nil
}

// AddOne bumps progress without a token.
func (l *Ledger) AddOne(ctx context.Context) (models.ProgressSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	progress, err := l.readProgress(ctx)
	if err != nil {
		return models.ProgressSnapshot{}, err
	}
	progress = min(l.goal, progress+1)
	if err := l.store.Set(ctx, models.KeyProgress, strconv.Itoa(progress)); err != nil {
		return models.ProgressSnapshot{}, fmt.Errorf("failed to save progress: %w", err)
	}

	log.Info().Int("progress", progress).Msg("progress incremented")
	return models.NewProgressSnapshot(progress, l.goal), nil
}

// Reset zeroes progress and forgets every used token.
func (l *Ledger) Reset(ctx context.Context) (models.ProgressSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.write(ctx, 0, []string{}); err != nil {
		return models.ProgressSnapshot{}, fmt.Errorf("failed to reset: %w", err)
	}

	log.Info().Msg("progress reset")
	return models.NewProgressSnapshot(0, l.goal), nil
}

// Progress reads the current snapshot.
func (l *Ledger) Progress(ctx context.Context) (models.ProgressSnapshot, error) {
	progress, err := l.readProgress(ctx)
	if err != nil {
		return models.ProgressSnapshot{}, err
	}
	return models.NewProgressSnapshot(progress, l.goal), nil
}

// readProgress treats missing or unparseable values as 0 and clamps the
// result into [0, goal].
func (l *Ledger) readProgress(ctx context.Context) (int, error) {
	raw, ok, err := l.store.Get(ctx, models.KeyProgress)
	if err != nil {
		return 0, fmt.Errorf("failed to read progress: %w", err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		log.Debug().Str("value", raw).Msg("ignoring malformed progress")
		return 0, nil
	}
	return max(0, min(l.goal, n)), nil
}

func (l *Ledger) readUsedTokens(ctx context.Context) ([]string, error) {
	var used []string
	if _, err := kvstore.GetJSON(ctx, l.store, models.KeyUsedTokens, &used); err != nil {
		return nil, fmt.Errorf("failed to read used tokens: %w", err)
	}
	return used, nil
}

func (l *Ledger) write(ctx context.Context, progress int, used []string) error {
	tokens, err := kvstore.EncodeJSON(used)
	if err != nil {
		return err
	}
	return kvstore.SetAll(ctx, l.store, map[string]string{
		models.KeyProgress:   strconv.Itoa(progress),
		models.KeyUsedTokens: tokens,
	})
}
