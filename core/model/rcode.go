package model

// RCode is the DPA result code reported by the gateway, lower-cased.
type RCode string

const (
	RCodeNoError                     RCode = "no_error"
	RCodeErrorFail                   RCode = "error_fail"
	RCodeErrorPCmd                   RCode = "error_pcmd"
	RCodeErrorPNum                   RCode = "error_pnum"
	RCodeErrorAddr                   RCode = "error_addr"
	RCodeErrorDataLen                RCode = "error_data_len"
	RCodeErrorData                   RCode = "error_data"
	RCodeErrorHWPID                  RCode = "error_hwpid"
	RCodeErrorNAdr                   RCode = "error_nadr"
	RCodeErrorIfaceCustomHandler     RCode = "error_iface_custom_handler"
	RCodeErrorMissingCustomDPAHandle RCode = "error_missing_custom_dpa_handler"
	RCodeErrorUser                   RCode = "error_user"
	RCodeConfirmation                RCode = "confirmation"
)

var rcodeText = map[RCode]string{
	RCodeNoError:                     "No error",
	RCodeErrorFail:                   "General fail",
	RCodeErrorPCmd:                   "Incorrect PCMD",
	RCodeErrorPNum:                   "Incorrect PNUM or PCMD",
	RCodeErrorAddr:                   "Incorrect address",
	RCodeErrorDataLen:                "Incorrect data length",
	RCodeErrorData:                   "Incorrect data",
	RCodeErrorHWPID:                  "Incorrect HW profile ID used",
	RCodeErrorNAdr:                   "Incorrect NADR",
	RCodeErrorIfaceCustomHandler:     "Data from interface consumed by custom DPA handler",
	RCodeErrorMissingCustomDPAHandle: "Custom DPA handler is missing",
	RCodeErrorUser:                   "User error code",
	RCodeConfirmation:                "Confirmation",
}

// OK reports whether the code signals success.
func (c RCode) OK() bool { return c == RCodeNoError }

// Known reports whether the code is part of the DPA catalogue.
func (c RCode) Known() bool {
	_, ok := rcodeText[c]
	return ok
}

// Description returns a human readable text, or the raw code when unknown.
func (c RCode) Description() string {
	if t, ok := rcodeText[c]; ok {
		return t
	}
	return string(c)
}
