package browser

import (
	"net/http"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"

	"github.com/Sriram-PR/page-engine/pkg/models"
)

func TestDefaultNavResult(t *testing.T) {
	nav := DefaultNavResult()
	assert.Equal(t, http.StatusOK, nav.StatusCode)
	assert.Equal(t, http.MethodGet, nav.Method)
	assert.Equal(t, "http/1.1", nav.Protocol)
	assert.Equal(t, models.HTTP11, nav.Version)
	assert.False(t, nav.WAFCheck)
}

func TestSuspectResponse(t *testing.T) {
	cases := []struct {
		name string
		resp *proto.NetworkResponse
		want bool
	}{
		{
			"challenge certificate",
			&proto.NetworkResponse{SecurityDetails: &proto.NetworkSecurityDetails{SubjectName: "challenges.cloudflare.com"}},
			true,
		},
		{
			"ordinary certificate",
			&proto.NetworkResponse{SecurityDetails: &proto.NetworkSecurityDetails{SubjectName: "example.com"}},
			false,
		},
		{
			"challenge platform path",
			&proto.NetworkResponse{URL: "https://example.com/cdn-cgi/challenge-platform/h/b"},
			true,
		},
		{
			"blob protocol",
			&proto.NetworkResponse{Protocol: "blob"},
			true,
		},
		{
			"blob protocol behind an ordinary certificate",
			&proto.NetworkResponse{
				SecurityDetails: &proto.NetworkSecurityDetails{SubjectName: "example.com"},
				Protocol:        "blob",
			},
			true,
		},
		{
			"plain response",
			&proto.NetworkResponse{URL: "https://example.com/app.js", Protocol: "h2"},
			false,
		},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, suspectResponse(tc.resp), tc.name)
	}
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, 200, normalizeStatus(200))
	assert.Equal(t, 599, normalizeStatus(599))
	assert.Equal(t, http.StatusExpectationFailed, normalizeStatus(0))
	assert.Equal(t, http.StatusExpectationFailed, normalizeStatus(999))
}
