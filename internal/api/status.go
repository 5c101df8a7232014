package api

import (
	"net/http"

	"cleanbook/internal/rpc"

	"google.golang.org/grpc/codes"
)

const (
	codeOK                 = "OK"
	codeMethodNotSupported = "METHOD_NOT_SUPPORTED"
	codeRateLimited        = "RATE_LIMITED"
)

func httpStatus(code rpc.Code) int {
	switch code {
	case rpc.CodeInvalidInput:
		return http.StatusBadRequest
	case rpc.CodeUnauthenticated:
		return http.StatusUnauthorized
	case rpc.CodeUnauthorized:
		return http.StatusForbidden
	case rpc.CodeNotFound:
		return http.StatusNotFound
	case rpc.CodeStorageError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func grpcCode(code rpc.Code) codes.Code {
	switch code {
	case rpc.CodeInvalidInput:
		return codes.InvalidArgument
	case rpc.CodeUnauthenticated:
		return codes.Unauthenticated
	case rpc.CodeUnauthorized:
		return codes.PermissionDenied
	case rpc.CodeNotFound:
		return codes.NotFound
	case rpc.CodeStorageError:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// metricCode is the code label recorded for a finished call.
func metricCode(err error) string {
	if err == nil {
		return codeOK
	}
	return string(rpc.CodeOf(err))
}
