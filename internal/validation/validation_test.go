package validation

import "testing"

type signup struct {
	Name     string   `json:"name" validate:"required,min=2,max=100"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	Role     string   `json:"role" validate:"required,oneof=employer freelancer"`
	Tags     []string `json:"tags" validate:"dive,notblank"`
}

func TestStruct_ReportsEveryField(t *testing.T) {
	errs := Struct(signup{
		Name:     "x",
		Email:    "nope",
		Password: "123",
		Role:     "admin",
		Tags:     []string{"ok", "  "},
	})

	want := map[string]string{
		"name":     "min",
		"email":    "email",
		"password": "min",
		"role":     "oneof",
		"tags[1]":  "notblank",
	}

	if len(errs) != len(want) {
		t.Fatalf("got %d errors, want %d: %+v", len(errs), len(want), errs)
	}

	for _, fe := range errs {
		rule, ok := want[fe.Field]
		if !ok {
			t.Fatalf("unexpected field %q", fe.Field)
		}
		if fe.Rule != rule {
			t.Fatalf("field %q: rule %q, want %q", fe.Field, fe.Rule, rule)
		}
		if fe.Message == "" {
			t.Fatalf("field %q: empty message", fe.Field)
		}
	}
}

func TestStruct_Valid(t *testing.T) {
	errs := Struct(signup{Name: "Ada", Email: "ada@example.com", Password: "secret", Role: "employer"})
	if errs != nil {
		t.Fatalf("expected no errors, got %+v", errs)
	}
}

func TestJSONPath(t *testing.T) {
	type inner struct {
		Budget float64 `json:"budget"`
	}
	type outer struct {
		Items []inner `json:"items"`
		Plain int
	}

	if got := JSONPath(&outer{}, "Items.Budget"); got != "items.budget" {
		t.Fatalf("got %q", got)
	}
	if got := JSONPath(outer{}, "items.budget"); got != "items.budget" {
		t.Fatalf("got %q", got)
	}
	if got := JSONPath(outer{}, "Plain"); got != "Plain" {
		t.Fatalf("got %q", got)
	}
}

func TestTypeErrors_ReportsEveryMismatchedField(t *testing.T) {
	type input struct {
		Title  string   `json:"title"`
		Budget float64  `json:"budget"`
		Skills []string `json:"skills"`
		Note   string   `json:"-"`
	}

	raw := []byte(`{"title":42,"BUDGET":"ten","skills":[1],"unknown":true}`)

	got := TypeErrors(raw, &input{})
	if len(got) != 3 {
		t.Fatalf("expected three type errors, got %+v", got)
	}
	for i, want := range []string{"title", "budget", "skills"} {
		if got[i].Field != want || got[i].Rule != "type" || got[i].Message == "" {
			t.Fatalf("fields[%d] = %+v, want field %q", i, got[i], want)
		}
	}

	if errs := TypeErrors([]byte(`{"title":"ok","budget":5}`), &input{}); len(errs) != 0 {
		t.Fatalf("well-typed body reported %+v", errs)
	}
	if errs := TypeErrors([]byte(`[1,2]`), &input{}); errs != nil {
		t.Fatalf("non-object body must yield nil, got %+v", errs)
	}
}
