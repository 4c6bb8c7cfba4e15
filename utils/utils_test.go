package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestNormalizeUserName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"Alice", "alice"},
		{"  BOB  ", "bob"},
		{"ａｌｉｃｅ", "alice"}, // full-width folds under NFKC
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeUserName(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "alice@x.com", NormalizeEmail("  Alice@X.com "))
}

func TestGenerateSlug(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "jose-garcia", GenerateSlug("José García"))
	assert.Equal(t, "a-b", GenerateSlug("--a__b--"))
}

func TestIsDuplicateKey(t *testing.T) {
	t.Parallel()

	assert.False(t, IsDuplicateKey(nil))
	assert.False(t, IsDuplicateKey(errors.New("other")))
	assert.True(t, IsDuplicateKey(mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}},
	}))
	assert.True(t, IsDuplicateKey(errors.New("E11000 duplicate key error collection: users")))
}
