package handler

// REQUEST PARSING:
// Every request body goes through one of the parseXxx functions below before a
// handler does anything with it. Each returns either a fully typed input
// struct or an *apperror.AppError (ErrValidation) listing every field problem
// it found, never both:
//
//	in, err := parseCreateMeal(w, r)
//	if err != nil { writeError(...); return }   // 400 + issues[]
//	// in is complete and well-typed from here on
//
// WHY DECODE INTO map[string]json.RawMessage FIRST?
// Decoding straight into a struct stops at the first type mismatch and can't
// tell a missing field from a zero value. Going through raw fields lets us
// report every bad field in one response and distinguish "absent" (leave it
// unchanged on update) from "false" or "".

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/dietlog/dietlog-api/internal/apperror"
	"github.com/dietlog/dietlog-api/internal/model"
)

// maxBodyBytes caps request bodies. Every payload this API accepts is tiny.
const maxBodyBytes = 1 << 20

type registerInput struct {
	Name     string
	Email    string
	Password string
}

type authenticateInput struct {
	Email    string
	Password string
}

type createMealInput struct {
	Name        string
	Description *string
	Date        time.Time
	InDiet      bool
}

// fields walks a decoded JSON object and collects issues as it goes.
type fields struct {
	raw    map[string]json.RawMessage
	issues []apperror.Issue
}

func (f *fields) fail(name, format string, args ...any) {
	f.issues = append(f.issues, apperror.Issue{Field: name, Message: fmt.Sprintf(format, args...)})
}

// lookup returns the raw value and whether the key was present with a
// non-null value. A present null is reported through isNull.
func (f *fields) lookup(name string) (raw json.RawMessage, present, isNull bool) {
	raw, ok := f.raw[name]
	if !ok {
		return nil, false, false
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, true, true
	}
	return raw, true, false
}

// str reads a string field. A missing required field and a null where null
// isn't allowed are both issues.
func (f *fields) str(name string, required, nullable bool) (val *string, present bool) {
	raw, present, isNull := f.lookup(name)
	switch {
	case !present:
		if required {
			f.fail(name, "Required")
		}
		return nil, false
	case isNull:
		if !nullable {
			f.fail(name, "Expected string, received null")
		}
		return nil, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		f.fail(name, "Expected string")
		return nil, true
	}
	return &s, true
}

func (f *fields) boolean(name string, required bool) *bool {
	raw, present, isNull := f.lookup(name)
	if !present {
		if required {
			f.fail(name, "Required")
		}
		return nil
	}
	if isNull {
		f.fail(name, "Expected boolean, received null")
		return nil
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		f.fail(name, "Expected boolean")
		return nil
	}
	return &b
}

// datetime reads an ISO-8601 / RFC 3339 timestamp string.
func (f *fields) datetime(name string, required bool) *time.Time {
	s, _ := f.str(name, required, false)
	if s == nil {
		return nil
	}

	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(*s))
	if err != nil {
		f.fail(name, "Invalid datetime")
		return nil
	}
	return &t
}

func (f *fields) err() error {
	if len(f.issues) == 0 {
		return nil
	}
	return apperror.ValidationIssues(f.issues)
}

// decodeObject reads the body as a single JSON object.
func decodeObject(w http.ResponseWriter, r *http.Request) (*fields, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperror.ValidationFailed("body", "request body is too large or unreadable")
	}

	f := &fields{raw: map[string]json.RawMessage{}}
	if len(bytes.TrimSpace(body)) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(body, &f.raw); err != nil || f.raw == nil {
		return nil, apperror.ValidationFailed("body", "request body must be a JSON object")
	}
	return f, nil
}

func parseRegister(w http.ResponseWriter, r *http.Request) (*registerInput, error) {
	f, err := decodeObject(w, r)
	if err != nil {
		return nil, err
	}

	name, _ := f.str("name", true, false)
	email := parseEmail(f)
	password, _ := f.str("password", true, false)

	if err := f.err(); err != nil {
		return nil, err
	}
	return &registerInput{Name: *name, Email: *email, Password: *password}, nil
}

func parseAuthenticate(w http.ResponseWriter, r *http.Request) (*authenticateInput, error) {
	f, err := decodeObject(w, r)
	if err != nil {
		return nil, err
	}

	email := parseEmail(f)
	password, _ := f.str("password", true, false)

	if err := f.err(); err != nil {
		return nil, err
	}
	return &authenticateInput{Email: *email, Password: *password}, nil
}

// parseEmail reads the required "email" field and checks it is a bare
// address (no display name, no angle brackets).
func parseEmail(f *fields) *string {
	email, _ := f.str("email", true, false)
	if email == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*email)
	if !validEmail(trimmed) {
		f.fail("email", "Invalid email")
		return nil
	}
	return &trimmed
}

// validEmail accepts what net/mail parses as a bare addr-spec whose domain
// has at least one dot.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}

func parseCreateMeal(w http.ResponseWriter, r *http.Request) (*createMealInput, error) {
	f, err := decodeObject(w, r)
	if err != nil {
		return nil, err
	}

	name, _ := f.str("name", true, false)
	description, _ := f.str("description", false, true)
	date := f.datetime("date", true)
	inDiet := f.boolean("in_diet", true)

	if err := f.err(); err != nil {
		return nil, err
	}
	return &createMealInput{
		Name:        *name,
		Description: description,
		Date:        *date,
		InDiet:      *inDiet,
	}, nil
}

// parseUpdateMeal builds a patch from whichever fields are present. An empty
// object is valid and yields an empty patch. An explicit null description
// clears it.
func parseUpdateMeal(w http.ResponseWriter, r *http.Request) (model.MealPatch, error) {
	f, err := decodeObject(w, r)
	if err != nil {
		return model.MealPatch{}, err
	}

	var patch model.MealPatch
	patch.Name, _ = f.str("name", false, false)

	description, present := f.str("description", false, true)
	if present && description == nil {
		empty := ""
		description = &empty
	}
	patch.Description = description

	patch.Date = f.datetime("date", false)
	patch.InDiet = f.boolean("in_diet", false)

	if err := f.err(); err != nil {
		return model.MealPatch{}, err
	}
	return patch, nil
}
