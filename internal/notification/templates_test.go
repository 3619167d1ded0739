package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"goalmateAPI/internal/types/notification"
)

func TestRender(t *testing.T) {
	t.Run("substitutes username token", func(t *testing.T) {
		msg := Render(notification.TypeSupport, map[string]string{"[username]": "budi"})
		assert.Equal(t, "budi is supporting you", msg)
	})

	t.Run("replacement is single occurrence and case sensitive", func(t *testing.T) {
		// The value itself may contain the token; a second pass must not touch it.
		msg := Render(notification.TypeCheers, map[string]string{"[username]": "[username] jr"})
		assert.Equal(t, "[username] jr is cheers on your goal", msg)

		msg = Render(notification.TypeComment, map[string]string{"[Username]": "budi"})
		assert.Equal(t, "[username] is commenting on your goal", msg)
	})

	t.Run("template without tokens ignores payload", func(t *testing.T) {
		msg := Render(notification.TypeGoalFailed, map[string]string{"[username]": "budi"})
		assert.Equal(t, "You failed to achieve your goal", msg)
	})

	t.Run("unknown type yields empty message", func(t *testing.T) {
		assert.Equal(t, "", Render(notification.TypeSystem, nil))
		assert.Equal(t, "", Render(notification.Type("bogus"), map[string]string{"[username]": "budi"}))
	})
}
