package iohost

import (
	"fmt"

	"github.com/wfl-lang/wflcore/core/wflerr"
)

// Get performs a GET request through the pooled resty client and
// returns the response body text (spec §4.4.10: "bind the response
// body text to var"). A connection failure or non-2xx status
// propagates as a RuntimeError.
func (h *IoHost) Get(url string) (string, error) {
	resp, err := h.client.R().Get(url)
	if err != nil {
		return "", wflerr.New(err.Error(), 0, 0)
	}
	if resp.IsError() {
		return "", wflerr.New(fmt.Sprintf("http get %s: %s", url, resp.Status()), 0, 0)
	}
	return string(resp.Body()), nil
}

// Post performs a POST request with a text body through the pooled
// resty client and returns the response body text.
func (h *IoHost) Post(url, body string) (string, error) {
	resp, err := h.client.R().SetBody(body).Post(url)
	if err != nil {
		return "", wflerr.New(err.Error(), 0, 0)
	}
	if resp.IsError() {
		return "", wflerr.New(fmt.Sprintf("http post %s: %s", url, resp.Status()), 0, 0)
	}
	return string(resp.Body()), nil
}
