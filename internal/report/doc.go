// Package report renders audit reports.
//
// Three writers are provided:
//   - ConsoleWriter: colored progress lines while an audit runs, in the
//     familiar "URL STATUS REASON" form, plus per-engine findings
//   - JSONWriter: one JSON document holding every audited host
//   - MarkdownWriter: a shareable document with tables and a status chart
//
// JSONWriter and MarkdownWriter implement Writer. ConsoleWriter implements
// Writer too, and additionally the pipeline observer so that it can stream.
package report
