package common

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/moogar0880/problems"
)

type ProblemError struct {
	problems.DefaultProblem
}

func (o *ProblemError) Error() string {
	return fmt.Sprintf("%d %s: %s", o.ProblemStatus(), o.ProblemTitle(), o.Detail)
}

// StatusError is returned by CheckResponse when the server answered with an
// unexpected status and no problem details.
type StatusError struct {
	StatusCode int
}

func (o *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP response code %d", o.StatusCode)
}

func CheckResponse(res *http.Response, expected ...int) error {
	for _, exp := range expected {
		if res.StatusCode == exp {
			return nil
		}
	}

	defer res.Body.Close()

	mt, _, _ := mime.ParseMediaType(res.Header.Get("Content-Type"))
	if mt == problems.ProblemMediaType {
		var prob ProblemError

		if err := DecodeJSONBody(res, &prob.DefaultProblem); err != nil {
			return fmt.Errorf(
				"could not decode problem response (status %d): %w",
				res.StatusCode,
				err,
			)
		}

		return &prob
	}

	return &StatusError{StatusCode: res.StatusCode}
}
