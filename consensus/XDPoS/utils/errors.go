package utils

import "fmt"

// ErrorKind tags the single error taxonomy the consensus core exposes.
// Structural and crypto errors are local to one header; V2 errors carry
// extra context (InsufficientSignatures); everything else rejects a
// single block without affecting node liveness.
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	ErrExtraDataTooShort
	ErrInvalidExtraData
	ErrInvalidCheckpointSigners
	ErrMissingVanity
	ErrMissingSignature
	ErrUnauthorized
	ErrInvalidCheckpointBeneficiary
	ErrInvalidVote
	ErrInvalidDifficulty
	ErrInvalidMixDigest
	ErrInvalidTimestamp
	ErrFutureBlock
	ErrUnknownAncestor
	ErrMissingQC
	ErrInvalidQC
	ErrInvalidQCSignatures
	ErrMissingTC
	ErrInvalidTC
	ErrInvalidTCSignatures
	ErrBlockInfoMismatch
	ErrInsufficientSignatures
	ErrV2EngineNotInitialized
	ErrSignatureVerificationFailed
	ErrInvalidSignatureFormat
	ErrInvalidChild
	ErrInvalidHeaderOrder
)

// Error is the tagged error every fallible consensus operation returns.
type Error struct {
	Kind ErrorKind
	Msg  string
	Have int
	Need int
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == ErrInsufficientSignatures {
		return fmt.Sprintf("insufficient signatures: have %d, need %d", e.Have, e.Need)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind ErrorKind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

// Sentinel errors for the common structural/authority/temporal/crypto
// cases, so call sites can use errors.Is against a fixed value instead
// of constructing one ad hoc each time.
var (
	ErrExtraDataTooShortErr         = newErr(ErrExtraDataTooShort, "extra-data too short")
	ErrInvalidExtraDataErr          = newErr(ErrInvalidExtraData, "invalid extra-data")
	ErrInvalidCheckpointSignersErr  = newErr(ErrInvalidCheckpointSigners, "invalid checkpoint signer set")
	ErrMissingVanityErr             = newErr(ErrMissingVanity, "missing vanity")
	ErrMissingSignatureErr          = newErr(ErrMissingSignature, "missing signature")
	ErrUnauthorizedErr              = newErr(ErrUnauthorized, "unauthorized signer")
	ErrInvalidCheckpointBeneficiaryErr = newErr(ErrInvalidCheckpointBeneficiary, "checkpoint beneficiary must be zero")
	ErrInvalidVoteErr               = newErr(ErrInvalidVote, "invalid vote")
	ErrInvalidDifficultyErr         = newErr(ErrInvalidDifficulty, "invalid difficulty")
	ErrInvalidMixDigestErr          = newErr(ErrInvalidMixDigest, "invalid mix digest")
	ErrInvalidTimestampErr          = newErr(ErrInvalidTimestamp, "invalid timestamp")
	ErrFutureBlockErr               = newErr(ErrFutureBlock, "future block")
	ErrUnknownAncestorErr           = newErr(ErrUnknownAncestor, "unknown ancestor")
	ErrMissingQCErr                 = newErr(ErrMissingQC, "missing quorum certificate")
	ErrInvalidQCErr                 = newErr(ErrInvalidQC, "invalid quorum certificate")
	ErrInvalidQCSignaturesErr       = newErr(ErrInvalidQCSignatures, "invalid quorum certificate signatures")
	ErrMissingTCErr                 = newErr(ErrMissingTC, "missing timeout certificate")
	ErrInvalidTCErr                 = newErr(ErrInvalidTC, "invalid timeout certificate")
	ErrInvalidTCSignaturesErr       = newErr(ErrInvalidTCSignatures, "invalid timeout certificate signatures")
	ErrBlockInfoMismatchErr         = newErr(ErrBlockInfoMismatch, "block info mismatch")
	ErrV2EngineNotInitializedErr    = newErr(ErrV2EngineNotInitialized, "v2 engine not initialized")
	ErrSignatureVerificationFailedErr = newErr(ErrSignatureVerificationFailed, "signature verification failed")
	ErrInvalidSignatureFormatErr    = newErr(ErrInvalidSignatureFormat, "invalid signature format")
	ErrInvalidChild                = newErr(ErrInvalidChild, "invalid child header")
	ErrInvalidHeaderOrder           = newErr(ErrInvalidHeaderOrder, "invalid header order")
)

// InsufficientSignatures builds the one error variant that carries extra
// fields, per spec §7.
func InsufficientSignatures(have, need int) *Error {
	return &Error{Kind: ErrInsufficientSignatures, Have: have, Need: need}
}

// Wrap tags err as kind msg, preserving it as the unwrap target.
func Wrap(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Custom is the last-resort string carrier named in spec §7.
func Custom(msg string) *Error { return newErr(ErrUnknown, msg) }
