package validator

import "testing"

type registerInput struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

func TestValidateUsesJSONNames(t *testing.T) {
	errs := Validate(registerInput{Email: "nope", Username: "a b", Password: "short"})
	for _, field := range []string{"email", "username", "password"} {
		if _, ok := errs[field]; !ok {
			t.Fatalf("expected error for %q, got %v", field, errs)
		}
	}
}

func TestUsernameRule(t *testing.T) {
	cases := map[string]bool{
		"alice":     true,
		"al":        false,
		"a_b-c9":    true,
		"has space": false,
		"émile":     false,
	}
	for name, ok := range cases {
		errs := Validate(registerInput{Email: "a@x.com", Username: name, Password: "password1"})
		if _, bad := errs["username"]; bad == ok {
			t.Errorf("username %q: expected valid=%v, errors=%v", name, ok, errs)
		}
	}
}

func TestValidInputHasNoErrors(t *testing.T) {
	if errs := Validate(registerInput{Email: "a@x.com", Username: "alice", Password: "password1"}); errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}
}
