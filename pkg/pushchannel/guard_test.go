package pushchannel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifystream/pkg/pushchannel"
)

func TestExcludePaths(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		path     string
		excluded []string
		allowed  bool
	}{
		{path: "/", allowed: true},
		{path: "/dashboard/", allowed: true},
		{path: "/login/", allowed: false},
		{path: "/accounts/login/?next=/", allowed: false},
		{path: "/register/", allowed: false},
		{path: "/password/reset/done/", allowed: false},
		{path: "/admin/", allowed: false},
		{path: "/admin/", excluded: []string{"/signup/"}, allowed: true},
		{path: "/signup/step-2/", excluded: []string{"/signup/"}, allowed: false},
	}

	for _, tt := range tests {
		guard := pushchannel.ExcludePaths(func() string { return tt.path }, tt.excluded...)
		assert.Equal(t, tt.allowed, guard(ctx), "path %q excluded %v", tt.path, tt.excluded)
	}

	assert.True(t, pushchannel.ExcludePaths(nil)(ctx))
}
