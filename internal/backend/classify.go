package backend

import (
	"fmt"

	"github.com/midagedev/jongodb-differ/internal/value"
)

// ClassifyResponse implements §4.1's response-success rule: a response is
// successful iff ok == 1.0 and it contains no non-empty writeErrors array and
// no writeConcernError. On failure, msg/code/codeName are extracted preferring
// top-level errmsg/code/codeName, then the first write error, then the write
// concern error.
func ClassifyResponse(doc map[string]any) (ok bool, msg string, code int64, codeName string) {
	okFloat, isNum := value.AsFloat64(doc["ok"])
	isOK := isNum && okFloat == 1.0

	writeErrors, _ := doc["writeErrors"].([]any)
	wcErr, hasWCErr := doc["writeConcernError"]

	if isOK && len(writeErrors) == 0 && !hasWCErr {
		return true, "", 0, ""
	}

	msg = stringField(doc, "errmsg")
	code = int64Field(doc, "code")
	codeName = stringField(doc, "codeName")
	if msg == "" && len(writeErrors) > 0 {
		if we, ok := writeErrors[0].(map[string]any); ok {
			msg = stringField(we, "errmsg")
			code = int64Field(we, "code")
			codeName = stringField(we, "codeName")
		}
	}
	if msg == "" && hasWCErr {
		if wce, ok := wcErr.(map[string]any); ok {
			msg = stringField(wce, "errmsg")
			code = int64Field(wce, "code")
			codeName = stringField(wce, "codeName")
		}
	}
	return false, msg, code, codeName
}

// FormatFailure renders §4.1's fixed failure-message format.
func FormatFailure(commandName string, index int, msg string, code int64, codeName string) string {
	return fmt.Sprintf("command '%s' failed at index %d: %s (code=%d, codeName=%s)", commandName, index, msg, code, codeName)
}

func stringField(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return s
}

func int64Field(doc map[string]any, key string) int64 {
	n, _ := value.AsFloat64(doc[key])
	return int64(n)
}
