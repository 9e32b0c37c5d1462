package smartapi

import (
	jsoniter "github.com/json-iterator/go"
)

// ErrorCode is the broker's errorcode field. The empty value means no error.
// Codes outside the catalogue are kept verbatim and report Unrecognized.
type ErrorCode string

// NoError is the absent errorcode.
const NoError ErrorCode = ""

// Catalogue of documented broker error codes.
const (
	AG8001 ErrorCode = "AG8001"
	AG8002 ErrorCode = "AG8002"
	AG8003 ErrorCode = "AG8003"
	AB8050 ErrorCode = "AB8050"
	AB8051 ErrorCode = "AB8051"
	AB1000 ErrorCode = "AB1000"
	AB1001 ErrorCode = "AB1001"
	AB1002 ErrorCode = "AB1002"
	AB1003 ErrorCode = "AB1003"
	AB1004 ErrorCode = "AB1004"
	AB1005 ErrorCode = "AB1005"
	AB1006 ErrorCode = "AB1006"
	AB1007 ErrorCode = "AB1007"
	AB1008 ErrorCode = "AB1008"
	AB1009 ErrorCode = "AB1009"
	AB1010 ErrorCode = "AB1010"
	AB1011 ErrorCode = "AB1011"
	AB1012 ErrorCode = "AB1012"
	AB1013 ErrorCode = "AB1013"
	AB1014 ErrorCode = "AB1014"
	AB1015 ErrorCode = "AB1015"
	AB1016 ErrorCode = "AB1016"
	AB1017 ErrorCode = "AB1017"
	AB1018 ErrorCode = "AB1018"
	AB2000 ErrorCode = "AB2000"
	AB2001 ErrorCode = "AB2001"
	AB1031 ErrorCode = "AB1031"
	AB1032 ErrorCode = "AB1032"
	AB2002 ErrorCode = "AB2002"
)

var errorCodeDescriptions = map[ErrorCode]string{
	AG8001: "Invalid Token",
	AG8002: "Token Expired",
	AG8003: "Token Missing",
	AB8050: "Invalid Refresh Token",
	AB8051: "Refresh Token Expired",
	AB1000: "Invalid Email Or Password",
	AB1001: "Invalid Email",
	AB1002: "Invalid Password Length",
	AB1003: "Client Already Exists",
	AB1004: "Something Went Wrong, Please Try After Sometime",
	AB1005: "User Type Must Be USER",
	AB1006: "Client Is Block For Trading",
	AB1007: "AMX Error",
	AB1008: "Invalid Order Variety",
	AB1009: "Symbol Not Found",
	AB1010: "AMX Session Expired",
	AB1011: "Client not login",
	AB1012: "Invalid Product Type",
	AB1013: "Order not found",
	AB1014: "Trade not found",
	AB1015: "Holding not found",
	AB1016: "Position not found",
	AB1017: "Position conversion failed",
	AB1018: "Failed to get symbol details",
	AB2000: "Error not specified",
	AB2001: "Internal Error, Please try after sometime",
	AB1031: "Old Password Mismatch",
	AB1032: "User Not Found",
	AB2002: "ROBO order is block",
}

// ParseErrorCode never fails: unknown codes are preserved as unrecognized.
func ParseErrorCode(s string) ErrorCode {
	return ErrorCode(s)
}

// IsNone reports the absent errorcode.
func (c ErrorCode) IsNone() bool { return c == NoError }

// Known reports whether the code is in the catalogue.
func (c ErrorCode) Known() bool {
	_, ok := errorCodeDescriptions[c]
	return ok
}

// Unrecognized reports a non-empty code outside the catalogue.
func (c ErrorCode) Unrecognized() bool {
	return !c.IsNone() && !c.Known()
}

// Description is the documented meaning, or empty for unrecognized codes.
func (c ErrorCode) Description() string {
	return errorCodeDescriptions[c]
}

func (c ErrorCode) String() string {
	switch {
	case c.IsNone():
		return "none"
	case c.Known():
		return string(c) + " (" + c.Description() + ")"
	default:
		return "unrecognized(" + string(c) + ")"
	}
}

// UnmarshalJSON accepts a string, null, or any other scalar without error.
func (c *ErrorCode) UnmarshalJSON(data []byte) error {
	v := jsoniter.Get(data)
	switch v.ValueType() {
	case jsoniter.NilValue, jsoniter.InvalidValue:
		*c = NoError
	case jsoniter.StringValue:
		*c = ParseErrorCode(v.ToString())
	default:
		*c = ParseErrorCode(string(data))
	}
	return nil
}
