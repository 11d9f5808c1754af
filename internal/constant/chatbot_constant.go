package constant

const (
	QuickModeStudy = "study"
	QuickModeSite  = "site"
)

// Persona sent as the chat session's system instruction.
const SystemInstruction = "Você é o Aether Base, uma IA sofisticada, minimalista e altamente capaz criada por Davi Felipe. " +
	"Suas respostas são diretas, elegantes e úteis. Você ajuda o usuário a criar, programar e escrever. " +
	"Responda sempre em Português do Brasil. Se o usuário pedir para criar um site, forneça o código HTML completo " +
	"dentro de blocos de código markdown. Davi Felipe é um aluno do 6º ano que adora desenvolver projetos. " +
	"Se o usuário pedir PDF, sugira um tema e estrutura."

// Prompts. %s is the topic.
const (
	DocumentContentPrompt = "Escreva um artigo completo e bem estruturado sobre: \"%s\". " +
		"Use títulos com markdown (# Título, ## Subtítulo). Divida em parágrafos claros. " +
		"Não coloque blocos de código. O texto deve ser educativo e formal."
	DocumentIllustrationPrompt = "Uma imagem ilustrativa minimalista e profissional sobre %s"

	QuickModeStudyPrompt = "Ative o Modo de Estudo. Ajude-me a focar, crie resumos e faça perguntas sobre o que eu estudar."
	QuickModeSitePrompt  = "Ative o Criador de Sites. Crie um site completo em HTML/CSS/JS sobre um tema moderno. Mostre o código e o preview."
)

// Assistant turn texts.
const (
	DocumentPlaceholderText   = "Gerando PDF sofisticado..."
	DocumentIllustrationText  = "Gerando texto e imagem ilustrativa..."
	DocumentSuccessText       = "**PDF Criado com Sucesso!**\n\nO arquivo sobre \"%s\" já está disponível na sua biblioteca."
	DocumentFailureText       = "Erro ao gerar PDF. Tente novamente mais tarde."
	DocumentModeActivatedText = "Modo Criador de PDF ativado. **Qual é o tema do seu PDF?** (Digite o assunto, ex: 'História de Roma', 'Receita de Bolo')"
	ImagePlaceholderText      = "Processando sua imagem (Aguarde 30s)..."
	ImageSuccessText          = "Imagem criada com sucesso: \"%s\""
	ImageFailureText          = "Não foi possível gerar a imagem. Erro no servidor ou API Key."
	LoginRequiredText         = "Para criar ou editar imagens, você precisa fazer login."
	ChatFailureText           = "Desculpe, ocorreu um erro. Verifique sua conexão ou tente novamente."
	DefaultDocumentTopic      = "Documento"
)

// Library metadata.
const (
	DocumentAuthor    = "Aether User"
	GeneratedAuthor   = "Aether Base"
	SiteArtifactTitle = "Website gerado por IA"
	ImageTitleLength  = 20
)
