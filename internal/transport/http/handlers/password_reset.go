package handlers

import (
	"net/http"

	"github.com/pribylovaa/credential-service/internal/transport/http/httperr"
)

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token              string `json:"token"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// ForgotPassword обрабатывает POST /forgot-password: выпускает
// reset-токен и запускает доставку уведомления.
//
// Токен возвращается в теле ответа — поведение референсного контракта
// для окружений без почтового транспорта (отмечено в DESIGN.md как
// осознанное решение, в продакшене поле стоит убрать).
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in forgotPasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteInvalidBody(w, httperr.FlowForgotPassword)
		return
	}

	token, email, err := h.svc.ForgotPassword(r.Context(), in.Email)
	if err != nil {
		httperr.Write(w, r, httperr.FlowForgotPassword, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset token sent to your email",
		"email":   email,
		"token":   token,
	})
}

// ResetPassword обрабатывает POST /reset-password: потребляет
// одноразовый токен и устанавливает новый пароль.
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetPasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteInvalidBody(w, httperr.FlowResetPassword)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), in.Token, in.NewPassword, in.NewPasswordConfirm); err != nil {
		httperr.Write(w, r, httperr.FlowResetPassword, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset successful",
	})
}
