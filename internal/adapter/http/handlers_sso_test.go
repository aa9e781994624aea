package adapthttp

import (
	"encoding/json"
	"testing"
)

func TestSSOClaimsValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"verified email", `{"email":"a@x.io","email_verified":true,"preferred_username":"a"}`, false},
		{"unverified email", `{"email":"a@x.io","email_verified":false}`, true},
		{"verification claim absent", `{"email":"a@x.io"}`, true},
		{"missing email", `{"email_verified":true}`, true},
		{"blank email", `{"email":"  ","email_verified":true}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c ssoClaims
			if err := json.Unmarshal([]byte(tt.raw), &c); err != nil {
				t.Fatal(err)
			}
			err := c.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
