package mailer

import (
	"fmt"
	"html"
)

// ActivationMessage 注册激活邮件
func ActivationMessage(to, clientURL, token string) Message {
	link := fmt.Sprintf("%s/auth/activate/%s", clientURL, token)
	return Message{
		To:      to,
		Subject: "Account activation link",
		HTML: fmt.Sprintf(`<h1>Please use the following link to activate your account</h1>
<p><a href="%[1]s">%[1]s</a></p>
<hr />
<p>This link expires soon. If you did not sign up, ignore this email.</p>`, html.EscapeString(link)),
	}
}

// ResetPasswordMessage 重置密码邮件
func ResetPasswordMessage(to, clientURL, token string) Message {
	link := fmt.Sprintf("%s/auth/password/reset/%s", clientURL, token)
	return Message{
		To:      to,
		Subject: "Password reset link",
		HTML: fmt.Sprintf(`<h1>Please use the following link to reset your password</h1>
<p><a href="%[1]s">%[1]s</a></p>
<hr />
<p>If you did not request a password reset, ignore this email.</p>`, html.EscapeString(link)),
	}
}
