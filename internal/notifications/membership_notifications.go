package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/9ssi7/exponent"
)

// SendMembershipActivated pushes the "membership active" notification to every
// device the user registered. Callers treat failures as non-fatal.
func SendMembershipActivated(ctx context.Context, push PushSender, tokens []string, planName string, endDate time.Time) error {
	if len(tokens) == 0 {
		return errors.New("no push tokens")
	}

	title := "Membership Activated"
	body := fmt.Sprintf("Your %s is active until %s. See you at the gym! 💪", planName, endDate.Format("2 Jan 2006"))

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msg := &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			// drives deep linking when the notification is tapped
			Data: map[string]string{
				"type":   "membership",
				"screen": "membership-screen",
			},
		}
		msgs = append(msgs, msg)
	}

	_, err := push.Publish(ctx, msgs)
	return err
}
