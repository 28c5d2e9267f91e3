package client

import "fmt"

// settle resolves resp when its status is accepted by the configured
// validator, and otherwise fails with an Error carrying the response.
func settle(resp *Response) (*Response, error) {
	var validate func(int) bool
	if resp.Config != nil {
		validate = resp.Config.ValidateStatus
	}

	if resp.Status == 0 || validate == nil || validate(resp.Status) {
		return resp, nil
	}

	var code Code
	switch {
	case resp.Status >= 500:
		code = ErrCodeBadResponse
	case resp.Status >= 400:
		code = ErrCodeBadRequest
	}

	msg := fmt.Sprintf("Request failed with status code %d", resp.Status)

	return nil, newError(msg, code, resp.Config, resp.Request, resp)
}
