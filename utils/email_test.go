package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "typical address", in: "alice@example.com", want: "a***@example.com"},
		{name: "single char local part", in: "a@x.com", want: "a***@x.com"},
		{name: "long local part", in: "pizzalover2000@gmail.com", want: "p***@gmail.com"},
		{name: "multibyte first rune", in: "émile@example.com", want: "é***@example.com"},
		{name: "cjk local part", in: "山田@example.jp", want: "山***@example.jp"},
		{name: "missing at sign", in: "alice.example.com", wantErr: true},
		{name: "empty local part", in: "@example.com", wantErr: true},
		{name: "empty domain", in: "alice@", wantErr: true},
		{name: "empty string", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MaskEmail(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
