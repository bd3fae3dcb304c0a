package redact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "regular", in: "alice@example.com", want: "al***@example.com"},
		{name: "short_local", in: "ab@example.com", want: "***@example.com"},
		{name: "one_char_local", in: "a@example.com", want: "***@example.com"},
		{name: "not_an_email", in: "garbage", want: "***"},
		{name: "two_at_signs", in: "a@b@c", want: "***"},
		{name: "empty", in: "", want: "***"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Email(tc.in))
		})
	}
}

func TestTokenAndPassword(t *testing.T) {
	t.Parallel()

	require.Equal(t, "[REDACTED_TOKEN]", Token())
	require.Equal(t, "[REDACTED_PASSWORD]", Password())
}
