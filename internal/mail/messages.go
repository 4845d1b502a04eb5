package mail

import "fmt"

const otpMailBody = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Login Verification Code</h2>
  <p>You requested to login to your admin account.</p>
  <p>Your verification code is:</p>
  <div style="text-align: center; margin: 30px 0;">
    <span style="display: inline-block; padding: 16px 32px; font-size: 32px; font-weight: bold; letter-spacing: 8px;">%s</span>
  </div>
  <p style="font-size: 12px; color: #888;">This code will expire in 5 minutes.</p>
  <p style="font-size: 12px; color: #888;">If you didn't request this, please ignore this email.</p>
</div>`

const resetMailBody = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Password Reset Request</h2>
  <p>You requested a password reset for your admin account.</p>
  <p><a href="%[1]s">Reset Password</a></p>
  <p style="font-size: 12px; color: #888;">Or copy and paste this link:</p>
  <p style="font-size: 12px; color: #888; word-break: break-all;">%[1]s</p>
  <p style="font-size: 12px; color: #888;">This link will expire in 30 minutes.</p>
  <p style="font-size: 12px; color: #888;">If you didn't request this, please ignore this email.</p>
</div>`

// SendLoginOTP delivers a freshly issued otp code to the account's email.
func SendLoginOTP(sender MailSender, email string, otpCode string) error {
	return sender.Send(&Message{
		To:      []string{email},
		Subject: "Login OTP - Portfolio Admin",
		Body:    fmt.Sprintf(otpMailBody, otpCode),
		IsHTML:  true,
	})
}

// SendResetPasswordLink delivers a password reset link to the account's email.
func SendResetPasswordLink(sender MailSender, email string, resetLink string) error {
	return sender.Send(&Message{
		To:      []string{email},
		Subject: "Password Reset Request - Portfolio Admin",
		Body:    fmt.Sprintf(resetMailBody, resetLink),
		IsHTML:  true,
	})
}
