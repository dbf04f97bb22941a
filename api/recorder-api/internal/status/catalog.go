package internal_status

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

type Key string

const (
	KeyReady            Key = "ready"
	KeyUnsupported      Key = "unsupported"
	KeyConsent          Key = "consent"
	KeyPermissionDenied Key = "permission-denied"
	KeyRecording        Key = "recording"
	KeyStopping         Key = "stopping"
	KeyRecorded         Key = "recorded"
	KeyEmptyRecording   Key = "empty-recording"
	KeyCaptureError     Key = "capture-error"
	KeyFileSelected     Key = "file-selected"
	KeyInvalidFile      Key = "invalid-file"
	KeyFileTooLarge     Key = "file-too-large"
	KeySubmitting       Key = "submitting"
	KeyPleaseWait       Key = "please-wait"
	KeySubmitted        Key = "submitted"
	KeyUploadRejected   Key = "upload-rejected"
	KeyServerError      Key = "server-error"
	KeyNetworkError     Key = "network-error"
	KeyDiscarded        Key = "discarded"
	KeyBusy             Key = "busy"
	KeyNoArtifact       Key = "no-artifact"
	KeyAlreadySubmitted Key = "already-submitted"
	KeyNotRecording     Key = "not-recording"
	KeyConfirmDiscard   Key = "confirm-discard"
	KeyTryAgain         Key = "try-again"
	KeyStopHint         Key = "stop-hint"
	KeyChoiceHint       Key = "choice-hint"
	KeyRecordAgainHint  Key = "record-again-hint"
)

type entry struct {
	en string
	ar string
}

// %s placeholders carry the server or validation message verbatim.
var messages = map[Key]entry{
	KeyReady:            {"Ready to record.", "جاهز للتسجيل."},
	KeyUnsupported:      {"Audio recording is not supported here. You can upload a file instead.", "التسجيل الصوتي غير مدعوم هنا. يمكنك رفع ملف صوتي بدلاً من ذلك."},
	KeyConsent:          {"Please allow microphone access to record your answer.", "يرجى السماح بالوصول إلى الميكروفون لتسجيل إجابتك."},
	KeyPermissionDenied: {"Microphone access was denied. Allow access and try again.", "تم رفض الوصول إلى الميكروفون. يرجى السماح بالوصول والمحاولة مرة أخرى."},
	KeyRecording:        {"Recording...", "جاري التسجيل..."},
	KeyStopping:         {"Finishing recording...", "جاري إنهاء التسجيل..."},
	KeyRecorded:         {"Recording complete. Listen back, then submit.", "اكتمل التسجيل. استمع إليه ثم أرسله."},
	KeyEmptyRecording:   {"No audio was captured. Please try again.", "لم يتم التقاط أي صوت. يرجى المحاولة مرة أخرى."},
	KeyCaptureError:     {"Recording failed. Please try again.", "حدث خطأ أثناء التسجيل. يرجى المحاولة مرة أخرى."},
	KeyFileSelected:     {"File ready to submit.", "الملف جاهز للإرسال."},
	KeyInvalidFile:      {"Unsupported file: %s", "نوع الملف غير مدعوم: %s"},
	KeyFileTooLarge:     {"The file is too large (16 MB maximum).", "حجم الملف كبير جداً (الحد الأقصى 16 ميغابايت)."},
	KeySubmitting:       {"Uploading...", "جاري الرفع..."},
	KeyPleaseWait:       {"Please wait, the upload is still in progress.", "يرجى الانتظار، جاري رفع الملف."},
	KeySubmitted:        {"Answer submitted successfully.", "تم إرسال الإجابة بنجاح."},
	KeyUploadRejected:   {"Upload rejected: %s", "تم رفض الملف: %s"},
	KeyServerError:      {"Server error: %s", "خطأ في الخادم: %s"},
	KeyNetworkError:     {"Network error. Check your connection and try again.", "خطأ في الشبكة. تحقق من اتصالك وحاول مرة أخرى."},
	KeyDiscarded:        {"Recording discarded.", "تم حذف التسجيل."},
	KeyBusy:             {"Please finish the current action first.", "يرجى إنهاء العملية الحالية أولاً."},
	KeyNoArtifact:       {"Please record or choose an audio file first.", "يرجى اختيار ملف صوتي."},
	KeyAlreadySubmitted: {"This answer has already been submitted.", "تم إرسال هذه الإجابة مسبقاً."},
	KeyNotRecording:     {"Nothing is being recorded.", "لا يوجد تسجيل جارٍ."},
	KeyConfirmDiscard:   {"Discard this recording and record again?", "هل تريد حذف هذا التسجيل والتسجيل مرة أخرى؟"},
	KeyTryAgain:         {"Try again?", "هل تريد المحاولة مرة أخرى؟"},
	KeyStopHint:         {"Press Enter to stop recording.", "اضغط Enter لإيقاف التسجيل."},
	KeyRecordAgainHint:  {"Use record again to discard this answer first.", "استخدم إعادة التسجيل لحذف هذه الإجابة أولاً."},
	KeyChoiceHint:       {"[s] submit  [r] record again  [q] quit", "[s] إرسال  [r] إعادة التسجيل  [q] خروج"},
}

func newCatalog() (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, e := range messages {
		if err := b.SetString(language.English, string(key), e.en); err != nil {
			return nil, err
		}
		if err := b.SetString(language.Arabic, string(key), e.ar); err != nil {
			return nil, err
		}
	}
	return b, nil
}
