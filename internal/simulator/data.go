package simulator

import "citysense/internal/models"

type place struct {
	name     string
	lat, lng float64
}

// cityLocations anchors simulated incidents to real São Paulo spots.
var cityLocations = []place{
	{"Centro de São Paulo", -23.5505, -46.6333},
	{"Vila Madalena", -23.5598, -46.6890},
	{"Avenida Paulista", -23.5613, -46.6565},
	{"Parque Ibirapuera", -23.5873, -46.6578},
	{"Bairro da Liberdade", -23.5587, -46.6347},
	{"Marginal Tietê", -23.5290, -46.6658},
}

var reportLocations = []place{
	{"Rua Augusta, Centro", -23.5505, -46.6333},
	{"Vila Madalena", -23.5598, -46.6890},
	{"Avenida Paulista", -23.5613, -46.6565},
	{"Parque Ibirapuera", -23.5873, -46.6578},
	{"Rua da Consolação", -23.5587, -46.6347},
	{"Marginal Tietê", -23.5290, -46.6658},
	{"Bairro do Bixiga", -23.5620, -46.6480},
	{"Brooklin Novo", -23.6168, -46.7038},
}

type incident struct {
	title       string
	description string
	level       models.AlertLevel
}

var incidentTypes = []incident{
	{
		title:       "Acidente de Trânsito",
		description: "Acidente reportado envolvendo múltiplos veículos. Trânsito intenso na região.",
		level:       models.AlertHigh,
	},
	{
		title:       "Alagamento",
		description: "Nível da água acima do normal devido às chuvas intensas.",
		level:       models.AlertMedium,
	},
	{
		title:       "Manifestação Pública",
		description: "Concentração de pessoas reportada. Possível impacto no trânsito.",
		level:       models.AlertLow,
	},
	{
		title:       "Queda de Energia",
		description: "Falha no fornecimento de energia elétrica na região.",
		level:       models.AlertMedium,
	},
	{
		title:       "Emergência Médica",
		description: "Ocorrência médica reportada. Ambulâncias a caminho.",
		level:       models.AlertCritical,
	},
}

type reportTemplate struct {
	reportType   models.ReportType
	priority     models.ReportPriority
	titles       []string
	descriptions []string
}

var reportTemplates = []reportTemplate{
	{
		reportType: models.ReportInfrastructure,
		priority:   models.PriorityMedium,
		titles:     []string{"Buraco na rua", "Calçada quebrada", "Semáforo com defeito", "Falta de iluminação pública"},
		descriptions: []string{
			"Grande buraco na pista que está causando problemas para veículos",
			"Calçada em péssimo estado, dificultando a passagem de pedestres",
			"Semáforo não está funcionando, causando confusão no trânsito",
			"Rua muito escura à noite, falta de postes de luz funcionando",
		},
	},
	{
		reportType: models.ReportSecurity,
		priority:   models.PriorityHigh,
		titles:     []string{"Assalto na região", "Falta de policiamento", "Área perigosa", "Vandalismo"},
		descriptions: []string{
			"Relatos frequentes de assaltos nesta área, principalmente à noite",
			"Área com pouco policiamento, moradores se sentem inseguros",
			"Local muito perigoso para pedestres, principalmente mulheres",
			"Propriedade pública danificada por vândalos",
		},
	},
	{
		reportType: models.ReportEnvironment,
		priority:   models.PriorityMedium,
		titles:     []string{"Lixo acumulado", "Poluição do ar", "Árvore caída", "Esgoto a céu aberto"},
		descriptions: []string{
			"Muito lixo acumulado na rua, precisando de coleta",
			"Ar muito poluído na região, causando problemas respiratórios",
			"Árvore caiu e está bloqueando a passagem",
			"Esgoto vazando na rua, causando mau cheiro",
		},
	},
	{
		reportType: models.ReportTraffic,
		priority:   models.PriorityMedium,
		titles:     []string{"Trânsito intenso", "Estacionamento irregular", "Falta de sinalização", "Acidente frequente"},
		descriptions: []string{
			"Trânsito muito lento neste horário, precisa de alternativas",
			"Carros estacionados irregularmente, atrapalhando o fluxo",
			"Falta de placas de sinalização na via",
			"Local com muitos acidentes, precisa de lombada",
		},
	},
	{
		reportType: models.ReportEmergency,
		priority:   models.PriorityUrgent,
		titles:     []string{"Pessoa necessitando ajuda", "Vazamento de gás", "Princípio de incêndio", "Acidente grave"},
		descriptions: []string{
			"Pessoa em situação de rua precisando de assistência médica",
			"Forte cheiro de gás na região, possível vazamento",
			"Fumaça saindo de estabelecimento comercial",
			"Acidente grave com vítimas, precisa de atendimento",
		},
	},
	{
		reportType: models.ReportSuggestion,
		priority:   models.PriorityLow,
		titles:     []string{"Melhoria para a região", "Nova ciclovia", "Mais ônibus", "Área de lazer"},
		descriptions: []string{
			"Sugestão para melhorar a qualidade de vida na região",
			"Região precisa de ciclovia para facilitar deslocamento",
			"Falta de transporte público, precisa de mais linhas de ônibus",
			"Comunidade precisa de mais áreas de lazer e esporte",
		},
	},
}

var citizenNames = []string{
	"João Silva", "Maria Santos", "Pedro Oliveira",
	"Ana Costa", "Carlos Ferreira", "Lucia Almeida",
}
