package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidID       ErrCode = "INVALID_ID"
	ErrInvalidPayload  ErrCode = "INVALID_PAYLOAD"
	ErrInvalidStatus   ErrCode = "INVALID_STATUS"
	ErrInvalidSchedule ErrCode = "INVALID_SCHEDULE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound           ErrCode = "NOT_FOUND"
	ErrExamNotFound       ErrCode = "EXAM_NOT_FOUND"
	ErrAssignmentNotFound ErrCode = "ASSIGNMENT_NOT_FOUND"
	ErrResultNotFound     ErrCode = "RESULT_NOT_FOUND"
	ErrConflict           ErrCode = "CONFLICT"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrResultSubmitted ErrCode = "RESULT_ALREADY_SUBMITTED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."
	case ErrInvalidStatus:
		return "Status ujian tidak valid."
	case ErrInvalidSchedule:
		return "Jadwal ujian tidak valid. Tanggal baru wajib diisi saat menunda ujian."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrExamNotFound:
		return "Ujian tidak ditemukan."
	case ErrAssignmentNotFound:
		return "Siswa tidak terdaftar pada ujian ini."
	case ErrResultNotFound:
		return "Hasil ujian tidak ditemukan."
	case ErrConflict:
		return "Sumber daya sudah ada."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrResultSubmitted:
		return "Jawaban untuk ujian ini sudah dikumpulkan."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
