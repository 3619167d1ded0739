package visibility

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"goalmateAPI/internal/types/goal"
)

func TestVisible(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()

	tests := []struct {
		name     string
		vis      goal.Visibility
		viewer   *uuid.UUID
		supports bool
		want     bool
	}{
		{"public anonymous", goal.VisibilityPublic, nil, false, true},
		{"public stranger", goal.VisibilityPublic, &stranger, false, true},
		{"public owner", goal.VisibilityPublic, &owner, false, true},
		{"supporters with support edge", goal.VisibilitySupporters, &stranger, true, true},
		{"supporters without support edge", goal.VisibilitySupporters, &stranger, false, false},
		{"supporters owner", goal.VisibilitySupporters, &owner, false, true},
		{"supporters anonymous", goal.VisibilitySupporters, nil, false, false},
		{"supporters anonymous with any-supporter input", goal.VisibilitySupporters, nil, true, true},
		{"private owner", goal.VisibilityPrivate, &owner, false, true},
		{"private supporter", goal.VisibilityPrivate, &stranger, true, false},
		{"private anonymous", goal.VisibilityPrivate, nil, false, false},
		{"unknown tier", goal.Visibility("friends"), &owner, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Visible(tt.vis, owner, tt.viewer, tt.supports)
			assert.Equal(t, tt.want, got)
		})
	}
}
