package domain

// Domain contains the records exchanged with the CRM backend.

// Contact is a partner or client row ("contatti" on the backend).
type Contact struct {
	ID                 int64  `json:"id,omitempty"`
	Tipo               string `json:"tipo,omitempty"`
	Nome               string `json:"nome"`
	Azienda            string `json:"azienda,omitempty"`
	Indirizzo          string `json:"indirizzo,omitempty"`
	Civico             string `json:"civico,omitempty"`
	CAP                string `json:"cap,omitempty"`
	Localita           string `json:"localita,omitempty"`
	Provincia          string `json:"provincia,omitempty"`
	Telefono           string `json:"telefono,omitempty"`
	Email              string `json:"email,omitempty"`
	Note               string `json:"note,omitempty"`
	Tipologia          string `json:"tipologia,omitempty"`
	Grappa             bool   `json:"grappa"`
	ExtraAltro         string `json:"extraAltro,omitempty"`
	ConsegnaSpedizione string `json:"consegnaSpedizione,omitempty"`
	GLS                bool   `json:"gls"`
	Eliminato          bool   `json:"eliminato"`
	EliminatoIl        string `json:"eliminatoIl,omitempty"`
	CreatedAt          string `json:"createdAt,omitempty"`
	LastUpdate         string `json:"lastUpdate,omitempty"`
}

// DisplayName prefers the company name, as the GLS export does.
func (c Contact) DisplayName() string {
	if c.Azienda != "" {
		return c.Azienda
	}
	return c.Nome
}

// Settings are the application-wide settings stored by the backend.
type Settings struct {
	RegaloCorrente string   `json:"regaloCorrente,omitempty"`
	AnnoCorrente   int      `json:"annoCorrente,omitempty"`
	Consegnatari   []string `json:"consegnatari,omitempty"`
}

// BulkUpdate applies one property change to many records.
type BulkUpdate struct {
	IDs           []int64 `json:"ids"`
	PropertyName  string  `json:"propertyName"`
	PropertyValue any     `json:"propertyValue"`
}

// Status is the backend health payload.
type Status struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	ExcelSupport bool   `json:"excel_support"`
}
