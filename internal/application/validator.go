package application

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ericfisherdev/passwords/internal/domain/apperr"
	"github.com/ericfisherdev/passwords/internal/domain/model"
)

// uriPattern matches an absolute URI: a scheme (case-insensitive), then either
// an authority (optional userinfo, host or bracketed IP literal, optional
// port) followed by an optional absolute path, or a path with no authority.
// Query and fragment are optional. Whitespace is never allowed.
var uriPattern = regexp.MustCompile(
	`^(?i)[a-z][a-z0-9+.\-]*:` +
		`(?://(?:[^\s/?#@]*@)?(?:\[[0-9a-f:.]+\]|[^\s:/?#\[\]@]*)(?::[0-9]*)?(?:/[^\s?#]*)?` +
		`|/(?:[^\s?#/][^\s?#]*)?` +
		`|[^\s?#/][^\s?#]*` +
		`|)` +
		`(?:\?[^\s#]*)?` +
		`(?:#\S*)?$`,
)

var errNotString = errors.New("must be a string")

func isString(value any) error {
	if _, ok := value.(string); !ok {
		return errNotString
	}
	return nil
}

// credentialRules holds the per-field rule chains. ozzo stops at the first
// failing rule of a chain.
var credentialRules = map[string][]validation.Rule{
	model.FieldName:     {validation.By(isString)},
	model.FieldUsername: {validation.By(isString)},
	model.FieldPassword: {validation.By(isString)},
	model.FieldURI: {
		validation.By(isString),
		validation.Required.Error("must be a valid URI"),
		validation.Match(uriPattern).Error("must be a valid URI"),
	},
}

// ValidateCredential checks the whitelisted fields present in p and returns
// an apperr validation error for the first violation. Absent fields are not
// required. Unknown keys are ignored; callers strip them with
// Payload.Whitelist before persisting.
func ValidateCredential(p model.Payload) error {
	for _, field := range model.MutableFields {
		value, ok := p[field]
		if !ok {
			continue
		}
		if err := validation.Validate(value, credentialRules[field]...); err != nil {
			return apperr.Validation(field, err.Error())
		}
	}
	return nil
}
