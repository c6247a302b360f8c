package store

// schema creates the submission table. Column order matches insertSubmission.
const schema = `
CREATE TABLE IF NOT EXISTS calculator_submissions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_name TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL DEFAULT '',
    contract_value REAL NOT NULL DEFAULT 0,
    labor_scope TEXT NOT NULL DEFAULT '',
    payroll REAL NOT NULL DEFAULT 0,
    sub_amount REAL NOT NULL DEFAULT 0,
    sub_name TEXT NOT NULL DEFAULT '',
    sub_contact_name TEXT NOT NULL DEFAULT '',
    sub_contact_email TEXT NOT NULL DEFAULT '',
    wc_amount REAL NOT NULL DEFAULT 0,
    gl_amount REAL NOT NULL DEFAULT 0,
    umbrella_amount REAL NOT NULL DEFAULT 0,
    include_op INTEGER NOT NULL DEFAULT 0,
    op_amount REAL NOT NULL DEFAULT 0,
    total_deduction REAL NOT NULL DEFAULT 0,
    submitted_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_calculator_submissions_submitted_at
    ON calculator_submissions(submitted_at);
`

const insertSubmission = `
INSERT INTO calculator_submissions (
    project_name,
    state,
    contract_value,
    labor_scope,
    payroll,
    sub_amount,
    sub_name,
    sub_contact_name,
    sub_contact_email,
    wc_amount,
    gl_amount,
    umbrella_amount,
    include_op,
    op_amount,
    total_deduction,
    submitted_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

const selectSubmission = `
SELECT
    project_name, state, contract_value, labor_scope, payroll, sub_amount,
    sub_name, sub_contact_name, sub_contact_email, wc_amount, gl_amount,
    umbrella_amount, include_op, op_amount, total_deduction, submitted_at
FROM calculator_submissions
WHERE id = ?
`
