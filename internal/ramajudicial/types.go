// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ramajudicial

// Pagination mirrors the "paginacion" object returned by list endpoints.
type Pagination struct {
	Records       int `json:"cantidadRegistros"`
	RecordsOnPage int `json:"registrosPagina"`
	Pages         int `json:"cantidadPaginas"`
	Page          int `json:"pagina"`
}

// ProcesoSummary is one hit of the search by case number.
type ProcesoSummary struct {
	ID                   int64  `json:"idProceso"`
	ConnectionID         int64  `json:"idConexion"`
	LlaveProceso         string `json:"llaveProceso"`
	FechaProceso         string `json:"fechaProceso"`
	FechaUltimaActuacion string `json:"fechaUltimaActuacion"`
	Despacho             string `json:"despacho"`
	Departamento         string `json:"departamento"`
	SujetosProcesales    string `json:"sujetosProcesales"`
	EsPrivado            bool   `json:"esPrivado"`
}

// SearchResult is the body of /Procesos/Consulta/NumeroRadicacion.
type SearchResult struct {
	Procesos   []ProcesoSummary `json:"procesos"`
	Pagination Pagination       `json:"paginacion"`
}

// ProcesoDetail is the body of /Proceso/Detalle/{id}.
type ProcesoDetail struct {
	ID                  int64  `json:"idRegProceso"`
	LlaveProceso        string `json:"llaveProceso"`
	EsPrivado           bool   `json:"esPrivado"`
	FechaProceso        string `json:"fechaProceso"`
	CodDespacho         string `json:"codDespachoCompleto"`
	Despacho            string `json:"despacho"`
	Ponente             string `json:"ponente"`
	TipoProceso         string `json:"tipoProceso"`
	ClaseProceso        string `json:"claseProceso"`
	SubclaseProceso     string `json:"subclaseProceso"`
	Recurso             string `json:"recurso"`
	Ubicacion           string `json:"ubicacion"`
	ContenidoRadicacion string `json:"contenidoRadicacion"`
	FechaConsulta       string `json:"fechaConsulta"`
	UltimaActualizacion string `json:"ultimaActualizacion"`
}

// Actuacion is one procedural action recorded on a case, newest first.
type Actuacion struct {
	ID             int64  `json:"idRegActuacion"`
	LlaveProceso   string `json:"llaveProceso"`
	Consecutivo    int    `json:"consActuacion"`
	FechaActuacion string `json:"fechaActuacion"`
	Actuacion      string `json:"actuacion"`
	Anotacion      string `json:"anotacion"`
	FechaInicial   string `json:"fechaInicial"`
	FechaFinal     string `json:"fechaFinal"`
	FechaRegistro  string `json:"fechaRegistro"`
	CodRegla       string `json:"codRegla"`
	ConDocumentos  bool   `json:"conDocumentos"`
}

// ActuacionesPage is the body of /Proceso/Actuaciones/{id}.
type ActuacionesPage struct {
	Actuaciones []Actuacion `json:"actuaciones"`
	Pagination  Pagination  `json:"paginacion"`
}
