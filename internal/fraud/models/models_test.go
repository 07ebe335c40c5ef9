package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "termyx/pkg/domain-errors"
)

func TestEmailDomain(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{email: "user@mailinator.com", want: "mailinator.com"},
		{email: "User@MAILINATOR.COM", want: "mailinator.com"},
		{email: "  maria.silva@empresa.com.br ", want: "empresa.com.br"},
		{email: `"a@b"@gmail.com`, want: "gmail.com"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got, err := EmailDomain(tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmailDomainRejectsMalformed(t *testing.T) {
	for _, email := range []string{"", "   ", "no-at-sign", "user@", "@example.com"} {
		t.Run(email, func(t *testing.T) {
			_, err := EmailDomain(email)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestNormalizeDomain(t *testing.T) {
	assert.Equal(t, "mailinator.com", NormalizeDomain(" @Mailinator.COM "))
	assert.Equal(t, "guerrillamail.com", NormalizeDomain("guerrillamail.com"))
}

func TestEmailDomainRejectsDisplayNameAndComments(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{name: "display name", email: "Joe <user@mailinator.com>"},
		{name: "quoted display name", email: `"Joe Silva" <user@mailinator.com>`},
		{name: "angle brackets only", email: "<user@mailinator.com>"},
		{name: "trailing comment", email: "user@mailinator.com (x)"},
		{name: "comment after domain", email: "user@mailinator.com(temp)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			domain, err := EmailDomain(tt.email)
			require.Error(t, err, "parsed domain %q", domain)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}
