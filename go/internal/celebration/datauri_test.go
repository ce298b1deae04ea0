package celebration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDataURI(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		declared string
		want     string
	}{
		{
			name:     "declared type wins",
			data:     []byte("abc"),
			declared: "audio/wav",
			want:     "data:audio/wav;base64,YWJj",
		},
		{
			name:     "declared params dropped",
			data:     []byte("abc"),
			declared: "audio/ogg; codecs=opus",
			want:     "data:audio/ogg;base64,YWJj",
		},
		{
			name: "sniffed when missing",
			data: []byte("hello"),
			want: "data:text/plain;base64,aGVsbG8=",
		},
		{
			name:     "sniffed when generic",
			data:     gifBytes[:6],
			declared: "application/octet-stream",
			want:     "data:image/gif;base64,R0lGODlh",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeDataURI(tt.data, tt.declared))
		})
	}
}
