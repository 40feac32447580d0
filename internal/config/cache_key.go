package config

import (
	"fmt"
)

// RedisKeyStruct builds every Redis key and channel name used by the API.
// Redis holds login sessions and execution events only; domain data always
// comes from PostgreSQL.
type RedisKeyStruct struct{}

// UserSessionKey holds the JTI of the user's only valid token.
func (RedisKeyStruct) UserSessionKey(userID fmt.Stringer) string {
	return fmt.Sprintf("login:%s", userID)
}

// PlanEventsChannel is the PubSub channel carrying execution events of one plan.
func (RedisKeyStruct) PlanEventsChannel(planID fmt.Stringer) string {
	return fmt.Sprintf("test_plan:%s:events", planID)
}

var RedisKey = RedisKeyStruct{}
