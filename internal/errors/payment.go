package errors

import "errors"

var ErrMissingCredentials = errors.New("payment gateway credentials are not configured")
var ErrChargeAlreadyPending = errors.New("charge is already being monitored")
var ErrNoEventsInQueue = errors.New("no events in queue")
var ErrServerOverloaded = errors.New("server overloaded")
var ErrMissingPaymentCode = errors.New("gateway response has no pix code")
var ErrMissingTransactionID = errors.New("gateway response has no transaction id")
