package domain

// Hit is one raw document record returned by the document search provider.
// It is immutable and consumed once during ingestion.
type Hit struct {
	// ID is the provider's document identifier (idDocument).
	ID string `json:"id"`

	// Office is the court office that issued the document (despacho).
	Office string `json:"office"`

	// CaseNumber is the case file number (expediente).
	CaseNumber string `json:"case_number"`

	// InfoType is the kind of information, e.g. "Sentencia" (tipoInformacion).
	InfoType string `json:"info_type"`

	// Date is the document date as reported by the provider.
	Date string `json:"date"`

	// Content is the full document text.
	Content string `json:"content"`
}

// Chunk is a bounded unit of document text plus provenance metadata.
// It is the atomic retrievable unit and is never mutated after indexing.
type Chunk struct {
	// ID is a freshly generated identifier, independent of Text.
	ID string `json:"id"`

	// Text is the cleaned chunk text.
	Text string `json:"text"`

	Office     string `json:"office"`
	CaseNumber string `json:"case_number"`
	InfoType   string `json:"info_type"`
	Date       string `json:"date"`

	// SourceDocumentID is the ID of the Hit this chunk was cut from.
	SourceDocumentID string `json:"source_document_id"`
}

// Payload keys persisted alongside each vector.
const (
	PayloadSourceDocumentID = "source_document_id"
	PayloadOffice           = "office"
	PayloadCaseNumber       = "case_number"
	PayloadInfoType         = "info_type"
	PayloadDate             = "date"
	PayloadChunkText        = "chunk_text"
)

// Payload returns the exact payload stored with the chunk's vector.
func (c Chunk) Payload() map[string]string {
	return map[string]string{
		PayloadSourceDocumentID: c.SourceDocumentID,
		PayloadOffice:           c.Office,
		PayloadCaseNumber:       c.CaseNumber,
		PayloadInfoType:         c.InfoType,
		PayloadDate:             c.Date,
		PayloadChunkText:        c.Text,
	}
}

// ChunkFromPayload rebuilds a chunk from its id and stored payload.
func ChunkFromPayload(id string, payload map[string]string) Chunk {
	return Chunk{
		ID:               id,
		Text:             payload[PayloadChunkText],
		Office:           payload[PayloadOffice],
		CaseNumber:       payload[PayloadCaseNumber],
		InfoType:         payload[PayloadInfoType],
		Date:             payload[PayloadDate],
		SourceDocumentID: payload[PayloadSourceDocumentID],
	}
}
