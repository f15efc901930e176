package redis

import (
	"fmt"
	"strings"

	"github.com/inkpress/inkpress-go/internal/model"
)

// Key prefix namespacing all inkpress data away from unrelated keys
const keyPrefix = "inkpress"

// accountKey returns the Redis key for an Account record
func accountKey(id model.AccountID) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, id)
}

// emailIndexKey returns the Redis key for the email -> account_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, strings.ToLower(strings.TrimSpace(email)))
}

// activeUserKey returns the Redis key for the persisted active-user snapshot
func activeUserKey() string {
	return fmt.Sprintf("%s:active_user", keyPrefix)
}

// sessionKey returns the Redis key for a Session
func sessionKey(token string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, token)
}

// jobKey returns the Redis key for a demo Job
func jobKey(id model.JobID) string {
	return fmt.Sprintf("%s:job:%s", keyPrefix, id)
}
