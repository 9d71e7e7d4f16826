package generate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"ok", Request{FaceImage: "https://x/face.jpg", VideoTitle: "Hi"}, ""},
		{"missing face", Request{VideoTitle: "Hi"}, "face image required"},
		{"blank title", Request{FaceImage: "https://x/face.jpg", VideoTitle: "   "}, "title required"},
		{"long text", Request{FaceImage: "https://x/face.jpg", VideoTitle: "Hi", ThumbnailText: strings.Repeat("a", 201)}, "thumbnail text must be at most 200 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.True(t, errors.Is(err, ErrInvalidRequest))
		})
	}
}
