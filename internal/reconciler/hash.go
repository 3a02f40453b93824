package reconciler

import (
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// VerifyHash checks the gateway's reverse hash on a notification:
// sha512 over salt|status||||||udf5..udf1|email|firstname|productinfo|
// amount|txnid|key. UDF-sourced identifiers must not mutate booking
// state until this passes.
func VerifyHash(payload map[string]string, salt string) bool {
	provided := strings.TrimSpace(payload["hash"])
	if provided == "" {
		return false
	}

	fields := []string{
		salt,
		payload["status"],
		"", "", "", "", "", "",
		payload["udf5"],
		payload["udf4"],
		payload["udf3"],
		payload["udf2"],
		payload["udf1"],
		payload["email"],
		payload["firstname"],
		payload["productinfo"],
		payload["amount"],
		payload["txnid"],
		payload["key"],
	}
	sum := sha512.Sum512([]byte(strings.Join(fields, "|")))
	expected := hex.EncodeToString(sum[:])
	return strings.EqualFold(provided, expected)
}
