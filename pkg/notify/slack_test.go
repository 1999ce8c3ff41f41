package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlackWebhookPublish(t *testing.T) {
	tt := []struct {
		name          string
		notification  Notification
		expectedColor string
	}{
		{
			name: "success is green",
			notification: Notification{
				Title:   "Release 2.4.0 shipped",
				Text:    "* Offline mode",
				Success: true,
				Fields: []Field{
					{Name: "Lane", Value: "release"},
					{Name: "Build", Value: "1342"},
				},
			},
			expectedColor: "good",
		},
		{
			name: "failure is red",
			notification: Notification{
				Title:   "Release 2.4.0 failed",
				Text:    `stage "run-tests" failed: simulator timed out`,
				Success: false,
			},
			expectedColor: "danger",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var got slack.WebhookMessage

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				require.NoError(t, json.Unmarshal(body, &got))
			}))
			defer server.Close()

			n := NewSlackWebhook(server.URL)
			require.NoError(t, n.Publish(context.Background(), tc.notification))

			require.Len(t, got.Attachments, 1)
			attachment := got.Attachments[0]
			assert.Equal(t, tc.expectedColor, attachment.Color)
			assert.Equal(t, tc.notification.Title, attachment.Title)
			assert.Equal(t, tc.notification.Text, attachment.Text)
			assert.Len(t, attachment.Fields, len(tc.notification.Fields))
		})
	}
}
