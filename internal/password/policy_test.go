package password

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/eshop/internal/apperrors"
)

func TestValidate(t *testing.T) {
	t.Run("strong ok", func(t *testing.T) {
		for _, pwd := range []string{"Str0ngPass", "aB3defgh", "ÜberPass1"} {
			require.NoError(t, Validate(pwd), "password %q should pass policy", pwd)
		}
	})

	t.Run("weak fail", func(t *testing.T) {
		tests := []struct {
			name     string
			password string
			rule     Rule
		}{
			{"whitespace", "Str0ng Pass", RuleNoWhitespace},
			{"tab", "Str0ng\tPass", RuleNoWhitespace},
			{"no uppercase", "str0ngpass", RuleUppercase},
			{"no lowercase", "STR0NGPASS", RuleLowercase},
			{"no digit", "StrongPass", RuleDigit},
			{"too short", "Str0ng", RuleMinLength},
			{"empty", "", RuleUppercase},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := Validate(tt.password)

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrWeakPassword, "must be recognized as weak password")

				var weakErr *WeakPasswordError
				require.True(t, errors.As(err, &weakErr))
				require.Equal(t, tt.rule, weakErr.Rule)
				require.NotEmpty(t, weakErr.Error(), "message should name the rule")
			})
		}
	})
}
