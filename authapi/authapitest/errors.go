package authapitest

import "errors"

var errUnknownUser = errors.New("authapitest: unknown user")
