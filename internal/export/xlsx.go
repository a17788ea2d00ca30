// Package export writes analysis results to spreadsheet workbooks for
// readers who want the numbers behind the figures.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/civicdata/policy-atlas/internal/model"
	"github.com/civicdata/policy-atlas/internal/stats"
)

// Workbook writes the full report to an XLSX workbook with one sheet
// per result table.
func Workbook(report stats.Report, policies []model.StatePolicy, path string) error {
	f := xlsx.NewFile()

	if err := addGroupSummarySheet(f, report); err != nil {
		return err
	}
	if err := addComparisonSheet(f, report); err != nil {
		return err
	}
	if err := addGradientSheet(f, report); err != nil {
		return err
	}
	if err := addTrendSheet(f, report); err != nil {
		return err
	}
	if err := addStateDetailSheet(f, policies); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}
	return nil
}

func headerRow(sheet *xlsx.Sheet, headers ...string) {
	row := sheet.AddRow()
	for _, h := range headers {
		row.AddCell().SetString(h)
	}
}

func addGroupSummarySheet(f *xlsx.File, report stats.Report) error {
	sheet, err := f.AddSheet("Group Summary")
	if err != nil {
		return eris.Wrap(err, "export: add group summary sheet")
	}

	headerRow(sheet, "Group", "States", "Adults Mean", "Adults Median", "Adults Std", "Any Mean", "Any Median")
	for _, g := range report.Groups {
		row := sheet.AddRow()
		row.AddCell().SetString(string(g.Policy))
		row.AddCell().SetInt(g.NStates)
		row.AddCell().SetFloatWithFormat(g.AdultsScoreMean, "0.00")
		row.AddCell().SetFloatWithFormat(g.AdultsScoreMedian, "0.0")
		row.AddCell().SetFloatWithFormat(g.AdultsScoreStd, "0.00")
		row.AddCell().SetFloatWithFormat(g.AnyScoreMean, "0.00")
		row.AddCell().SetFloatWithFormat(g.AnyScoreMedian, "0.0")
	}

	// Rank test summary below the table.
	sheet.AddRow()
	mw := sheet.AddRow()
	mw.AddCell().SetString("Mann-Whitney U")
	mw.AddCell().SetFloatWithFormat(report.MannWhitney.U, "0.0")
	mwp := sheet.AddRow()
	mwp.AddCell().SetString("one-sided p")
	mwp.AddCell().SetFloatWithFormat(report.MannWhitney.PValue, "0.0000")
	return nil
}

func addComparisonSheet(f *xlsx.File, report stats.Report) error {
	sheet, err := f.AddSheet("Benefit Comparison")
	if err != nil {
		return eris.Wrap(err, "export: add comparison sheet")
	}

	headerRow(sheet, "Benefit", "No ID (%)", "ID Req (%)", "Odds Ratio", "Fisher p", "Sig")
	for _, c := range report.Comparisons {
		row := sheet.AddRow()
		row.AddCell().SetString(c.Benefit.Label())
		row.AddCell().SetFloatWithFormat(c.NoIDPct, "0.0")
		row.AddCell().SetFloatWithFormat(c.IDReqPct, "0.0")
		row.AddCell().SetFloatWithFormat(c.OddsRatio, "0.00")
		row.AddCell().SetFloatWithFormat(c.PValue, "0.0000")
		row.AddCell().SetString(stats.SignificanceStars(c.PValue))
	}
	return nil
}

func addGradientSheet(f *xlsx.File, report stats.Report) error {
	sheet, err := f.AddSheet("Tier Gradient")
	if err != nil {
		return eris.Wrap(err, "export: add gradient sheet")
	}

	headerRow(sheet, "Tier", "Classification", "States", "Mean Score", "Any Health (%)", "States List")
	for _, r := range report.Gradient {
		row := sheet.AddRow()
		row.AddCell().SetInt(r.Tier)
		row.AddCell().SetString(r.Label)
		row.AddCell().SetInt(r.NStates)
		row.AddCell().SetFloatWithFormat(r.AvgWelfare, "0.00")
		row.AddCell().SetFloatWithFormat(r.BenefitPct[model.BenefitAnyHealth], "0")
		row.AddCell().SetString(r.StateList())
	}

	sheet.AddRow()
	pr := sheet.AddRow()
	pr.AddCell().SetString("Pearson r (tier, score)")
	pr.AddCell().SetFloatWithFormat(report.PearsonR, "0.000")
	sr := sheet.AddRow()
	sr.AddCell().SetString("Spearman rho")
	sr.AddCell().SetFloatWithFormat(report.SpearmanRho, "0.000")
	sp := sheet.AddRow()
	sp.AddCell().SetString("Spearman p")
	sp.AddCell().SetFloatWithFormat(report.SpearmanP, "0.0000")
	return nil
}

func addTrendSheet(f *xlsx.File, report stats.Report) error {
	sheet, err := f.AddSheet("Trend Tests")
	if err != nil {
		return eris.Wrap(err, "export: add trend sheet")
	}

	headerRow(sheet, "Benefit", "Slope", "Std Err", "p (trend)", "Converged")
	for _, t := range report.Trends {
		row := sheet.AddRow()
		row.AddCell().SetString(t.Benefit.Label())
		if !t.Converged {
			row.AddCell().SetString("-")
			row.AddCell().SetString("-")
			row.AddCell().SetString("n/a")
			row.AddCell().SetBool(false)
			continue
		}
		row.AddCell().SetFloatWithFormat(t.Slope, "0.000")
		row.AddCell().SetFloatWithFormat(t.StdErr, "0.000")
		row.AddCell().SetFloatWithFormat(t.PTrend, "0.0000")
		row.AddCell().SetBool(true)
	}
	return nil
}

func addStateDetailSheet(f *xlsx.File, policies []model.StatePolicy) error {
	sheet, err := f.AddSheet("State Detail")
	if err != nil {
		return eris.Wrap(err, "export: add state detail sheet")
	}

	headerRow(sheet, "State", "Abbrev", "Tier", "Tier Label", "Group",
		"Health Adults", "Health Children", "Health Seniors", "Food", "Cash", "EITC",
		"Adults Score", "Any Score")
	for _, p := range policies {
		row := sheet.AddRow()
		row.AddCell().SetString(p.State)
		row.AddCell().SetString(p.Abbrev)
		row.AddCell().SetInt(p.IDStrictness)
		row.AddCell().SetString(model.TierLabel(p.IDStrictness))
		row.AddCell().SetString(string(p.Policy()))
		row.AddCell().SetInt(p.HealthAdults)
		row.AddCell().SetInt(p.HealthChildren)
		row.AddCell().SetInt(p.HealthSeniors)
		row.AddCell().SetInt(p.Food)
		row.AddCell().SetInt(p.Cash)
		row.AddCell().SetInt(p.EITC)
		row.AddCell().SetInt(p.WelfareScoreAdults())
		row.AddCell().SetInt(p.WelfareScoreAny())
	}
	return nil
}
