package queue

import (
	"encoding/json"
	"testing"
)

func TestEmailMessageValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		msg     EmailMessage
		wantErr bool
	}{
		{name: "valid", msg: EmailMessage{EmailID: "email-1"}, wantErr: false},
		{name: "valid with correlation id", msg: EmailMessage{EmailID: "email-1", CorrelationID: "corr-1"}, wantErr: false},
		{name: "missing email id", msg: EmailMessage{}, wantErr: true},
		{name: "blank email id", msg: EmailMessage{EmailID: "   "}, wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.msg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr = %v", err, tc.wantErr)
			}
		})
	}
}

func TestEmailMessageJSONShape(t *testing.T) {
	t.Parallel()

	payload, err := json.Marshal(EmailMessage{EmailID: "email-1"})
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}

	// Correlation id is omitted when empty so old consumers keep working.
	if string(payload) != `{"emailId":"email-1"}` {
		t.Fatalf("payload = %s", string(payload))
	}
}
