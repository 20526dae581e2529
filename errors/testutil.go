package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func AssertCode(t *testing.T, err error, code int) {
	var coded Error
	if As(err, &coded) {
		assert.Equal(t, code, coded.Code(), "code should be equal")
		return
	}

	if code != DefaultCode {
		assert.Fail(t, fmt.Sprintf("error is not Error and expected code != %d (default)", DefaultCode))
	}
}
