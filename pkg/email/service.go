// pkg/email/service.go
package email

var GlobalEmailService *EmailService

func InitEmailService(apiKey, templatesDir string) error {
	service, err := NewEmailService(apiKey, templatesDir)
	if err != nil {
		return err
	}
	GlobalEmailService = service
	return nil
}
