package model

// Company is one selectable company of a tenant (`tb_COMPANY`).
type Company struct {
    Code string `db:"COMPANY_CODE" json:"COMPANY_CODE"`
    Name string `db:"COMPANY_NAME" json:"COMPANY_NAME"`
}
