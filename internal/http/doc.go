// Package http exposes the planner over JSON and iCalendar.
//
// Every route except /healthz requires the owner header (X-Owner-ID unless
// configured otherwise). Responses use the envelope {"success":true,"data":...}
// or {"success":false,"error":{"code","message","details"}}.
//
//   - POST /planner-items, PUT|DELETE /planner-items/{id}
//   - POST /exams, PUT|DELETE /exams/{id}
//   - POST /events, PUT|DELETE /events/{id}
//     Writes overlapping stored items answer 409 SCHEDULE_CONFLICT with
//     details.conflicts unless the body sets "allowConflicts": true.
//   - POST /conflicts/check: dry run of the same check for a candidate
//     {"kind":"PLANNER"|"EXAM"|"EVENT", ...timestamps, "ignore*Id"}.
//   - POST /semesters, GET|POST /courses, DELETE /courses/{id}
//   - GET /calendar?from=&to=[&semesterId=&courseId=&status=&q=]: planner
//     items, exams, events and weekly sessions in the range.
//   - GET /calendar/sessions: the sessions expanded to dated occurrences.
//   - GET /calendar/ics: text/calendar export with a BLAKE2b ETag.
//   - GET /healthz
//
// Timestamps are RFC 3339 on input and 2006-01-02T15:04:05.000Z on output.
// Request DTOs live alongside their handlers.
package http
