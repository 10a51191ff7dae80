package campaign

import "errors"

var (
	// ErrNotFound indicates a campaign run was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")
)

const (
	apologyMessage = "Desculpe, ocorreu um erro ao processar sua mensagem. Por favor, tente novamente ou forneça mais informações sobre seu empreendimento."
	replyFailure   = "Desculpe, ocorreu um erro ao processar sua mensagem. Tente novamente ou forneça mais detalhes sobre seu empreendimento."
)
