package llm

// DefaultExtractionPrompt is the fallback prompt for invoice field
// extraction, used when no prompt has been configured through the
// configuration endpoint. It instructs the model to answer with a bare JSON
// object keyed cnpj/data/valor, null for anything it cannot find.
const DefaultExtractionPrompt = `Analise esta imagem de nota fiscal. Extraia as seguintes informações e formate-as como um objeto JSON. ` +
	`Se um dado não for encontrado, use null. Não adicione nenhum texto antes ou depois do JSON. ` +
	`Certifique-se de que o JSON é válido: ` +
	`{"cnpj": [CNPJ da empresa emissora, apenas números], ` +
	`"data": [Data da emissão no formato DD/MM/AAAA], ` +
	`"valor": [Valor total pago da nota fiscal, em formato numérico com ponto como separador decimal, ex: 123.45]}`
