package governance

import "encoding/json"

// encodeMemberInfo encodes a status record the way the governance service stores it
func encodeMemberInfo(info MemberInfo) ([]byte, error) {
	return json.Marshal(info)
}
