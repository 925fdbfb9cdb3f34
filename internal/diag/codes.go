package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Ошибки разбора трассы потока
	GuardFormatError    Code = 1001
	GuardStackUnderflow Code = 1002
	GuardNameMismatch   Code = 1003

	// Сборка леса
	ForestNoMain            Code = 2001
	ForestMultipleMain      Code = 2002
	ForestBadFileName       Code = 2003
	ForestDuplicateCreation Code = 2004
	ForestOrphanThread      Code = 2005
	ForestTruncated         Code = 2006
	ForestDuplicateThread   Code = 2007

	// Ввод-вывод
	IOReadError Code = 3001
)

var codeDescription = map[Code]string{
	UnknownCode:             "Unknown error",
	GuardFormatError:        "Malformed guard line",
	GuardStackUnderflow:     "Return past the root frame",
	GuardNameMismatch:       "Return does not match the open call",
	ForestNoMain:            "No main thread file",
	ForestMultipleMain:      "More than one main thread file",
	ForestBadFileName:       "Trace file name is not a thread id",
	ForestDuplicateCreation: "Thread created more than once",
	ForestOrphanThread:      "Created thread has no trace file",
	ForestTruncated:         "Replay truncated at hit limit",
	ForestDuplicateThread:   "Thread id has more than one trace file",
	IOReadError:             "Trace file could not be read",
}

func (c Code) ID() string {
	ic := int(c)
	switch {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("GRD%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("FOR%04d", ic)
	case ic >= 3000 && ic < 4000:
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
