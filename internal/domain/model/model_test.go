package model_test

import (
	"testing"

	"github.com/okian/heatguard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseGender(t *testing.T) {
	Convey("Given gender spellings", t, func() {
		So(model.ParseGender("male"), ShouldEqual, model.GenderMale)
		So(model.ParseGender(" M "), ShouldEqual, model.GenderMale)
		So(model.ParseGender("Female"), ShouldEqual, model.GenderFemale)
		So(model.ParseGender("f"), ShouldEqual, model.GenderFemale)
		So(model.ParseGender("other"), ShouldEqual, model.Gender(""))
	})
}

func TestParseRiskLevel(t *testing.T) {
	Convey("Given stored level strings", t, func() {
		for _, lvl := range model.Levels {
			got, err := model.ParseRiskLevel(string(lvl))
			So(err, ShouldBeNil)
			So(got, ShouldEqual, lvl)
		}

		got, err := model.ParseRiskLevel("medium")
		So(err, ShouldBeNil)
		So(got, ShouldEqual, model.RiskMedium)

		_, err = model.ParseRiskLevel("CRITICAL")
		So(err, ShouldNotBeNil)
	})
}

func TestPatientBMI(t *testing.T) {
	Convey("Given a patient", t, func() {
		Convey("When height and weight are known", func() {
			p := model.Patient{HeightCM: model.Float(180), WeightKG: model.Float(81)}

			Convey("Then BMI is derived as kg/m²", func() {
				So(*p.BMI(), ShouldAlmostEqual, 25.0, 1e-9)
			})
		})

		Convey("When an explicit BMI is stored", func() {
			p := model.Patient{HeightCM: model.Float(180), WeightKG: model.Float(81), BMIValue: model.Float(30)}

			Convey("Then it wins over the derived value", func() {
				So(*p.BMI(), ShouldEqual, 30.0)
			})
		})

		Convey("When height is missing or zero", func() {
			So(model.Patient{WeightKG: model.Float(70)}.BMI(), ShouldBeNil)
			So(model.Patient{HeightCM: model.Float(0), WeightKG: model.Float(70)}.BMI(), ShouldBeNil)
		})

		Convey("When converted to a profile", func() {
			p := model.Patient{Gender: model.GenderMale, HeightCM: model.Float(200), WeightKG: model.Float(100)}
			prof := p.Profile()

			Convey("Then gender, weight and derived BMI are carried", func() {
				So(prof.Gender, ShouldEqual, model.GenderMale)
				So(*prof.Weight, ShouldEqual, 100.0)
				So(*prof.BMI, ShouldAlmostEqual, 25.0, 1e-9)
			})
		})
	})
}
