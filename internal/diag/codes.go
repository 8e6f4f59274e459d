package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Ошибки сервиса проверки типов
	ChkInfo            Code = 1000
	ChkCompileError    Code = 1001
	ChkFileNotIncluded Code = 1002

	// Ошибки утверждений ($ExpectType, $ExpectError, ^?)
	ExpInfo               Code = 2000
	ExpTypesDoNotMatch    Code = 2001
	ExpOrphanAssertion    Code = 2002
	ExpMultipleAssertions Code = 2003
	ExpErrorNotFound      Code = 2004
	ExpSnapshotNotFound   Code = 2005
	ExpSnapshotMismatch   Code = 2006
	ExpSyntaxError        Code = 2007

	// Ошибки I/O
	IOLoadFileError Code = 4001
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	ChkInfo:               "Type checker information",
	ChkCompileError:       "Compile error",
	ChkFileNotIncluded:    "File is not part of the checked program",
	ExpInfo:               "Assertion information",
	ExpTypesDoNotMatch:    "Types do not match",
	ExpOrphanAssertion:    "Orphan assertion",
	ExpMultipleAssertions: "Multiple $ExpectType assertions on one line",
	ExpErrorNotFound:      "Expected error not found",
	ExpSnapshotNotFound:   "Type snapshot not found",
	ExpSnapshotMismatch:   "Type snapshot does not match",
	ExpSyntaxError:        "Malformed directive",
	IOLoadFileError:       "I/O load file error",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("CHK%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("EXP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
