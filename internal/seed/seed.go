// Package seed loads the deployment catalog into a store: the medicine,
// consumable and equipment rosters from the field station setup guide, the
// default hospital and station rows, and zeroed blood inventory counters.
// Every write backs off when the row already exists, so the seeder is safe
// to run against a store that is already in service.
package seed

import (
	"context"
	"log/slog"

	"github.com/stationware/medsync/internal/config"
	"github.com/stationware/medsync/internal/db"
	"github.com/stationware/medsync/internal/models"
)

type catalogItem struct {
	code     string
	name     string
	class    string
	category string
	unit     string
	minStock int
}

type catalogEquipment struct {
	id       string
	name     string
	category string
	quantity int
}

var bloodTypes = []string{"A+", "A-", "B+", "B-", "O+", "O-", "AB+", "AB-"}

// Run seeds the registry, catalog and blood counters for the configured
// station. Returns on the first persistent error; partial seeds are fine
// because a rerun picks up where the last one stopped.
func Run(ctx context.Context, store *db.Store, cfg *config.Config, logger *slog.Logger) error {
	if err := seedRegistry(ctx, store, cfg); err != nil {
		return err
	}

	items := db.NewItemRepository(store.DB, store.Dialect())
	for _, it := range medicines {
		if err := items.Upsert(ctx, &models.Item{
			ItemCode:     it.code,
			ItemName:     it.name,
			ItemCategory: &it.class,
			Category:     &it.category,
			Unit:         it.unit,
			MinStock:     it.minStock,
		}); err != nil {
			return err
		}
	}
	for _, it := range consumables {
		if err := items.Upsert(ctx, &models.Item{
			ItemCode:     it.code,
			ItemName:     it.name,
			ItemCategory: &it.class,
			Category:     &it.category,
			Unit:         it.unit,
			MinStock:     it.minStock,
		}); err != nil {
			return err
		}
	}

	equipment := db.NewEquipmentRepository(store.DB, store.Dialect())
	for _, eq := range equipmentRoster {
		if err := equipment.Upsert(ctx, &models.Equipment{
			ID:       eq.id,
			Name:     eq.name,
			Category: &eq.category,
			Quantity: eq.quantity,
			Status:   "UNCHECKED",
		}); err != nil {
			return err
		}
	}

	if err := seedBloodCounters(ctx, store, cfg.StationID); err != nil {
		return err
	}

	logger.Info("Catalog seeded",
		"medicines", len(medicines),
		"consumables", len(consumables),
		"equipment", len(equipmentRoster),
		"blood_types", len(bloodTypes),
		"station_id", cfg.StationID,
	)
	return nil
}

func seedRegistry(ctx context.Context, store *db.Store, cfg *config.Config) error {
	hospitals := db.NewHospitalRepository(store.DB, store.Dialect())
	stations := db.NewStationRepository(store.DB, store.Dialect())

	hospital := &models.Hospital{
		HospitalID:        cfg.HospitalID,
		HospitalName:      "Field Hospital " + cfg.HospitalID,
		HospitalType:      "FIELD_HOSPITAL",
		CommandLevel:      "REGIONAL",
		NetworkAccess:     "NONE",
		OperationalStatus: "ACTIVE",
	}
	if err := hospitals.Upsert(ctx, hospital); err != nil {
		return err
	}

	station := &models.Station{
		StationID:         cfg.StationID,
		StationName:       "Health Center " + cfg.StationID,
		HospitalID:        cfg.HospitalID,
		StationType:       "SMALL",
		NetworkAccess:     "NONE",
		OperationalStatus: "ACTIVE",
	}
	return stations.Upsert(ctx, station)
}

// seedBloodCounters inserts a zero row per blood type so the inventory view
// lists every type from day one instead of growing rows as blood arrives.
func seedBloodCounters(ctx context.Context, store *db.Store, stationID string) error {
	blood := db.NewBloodRepository(store.DB, store.Dialect())
	for _, bt := range bloodTypes {
		_, exists, err := blood.Quantity(ctx, bt, stationID)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := blood.InsertQuantity(ctx, bt, stationID, 0); err != nil {
			return err
		}
	}
	return nil
}

// Medicine roster from the station setup guide. Codes are stable across
// deployments; sync packages reference them, so renumbering is a breaking
// change.
var medicines = []catalogItem{
	{"MED-EMER-001", "Epinephrine 1:1000", "MEDICINE", "Emergency", "Amp", 20},
	{"MED-EMER-002", "Atropine 1mg/ml", "MEDICINE", "Emergency", "Amp", 20},
	{"MED-EMER-003", "Amiodarone 150mg", "MEDICINE", "Emergency", "Amp", 10},
	{"MED-EMER-004", "Adenosine 6mg", "MEDICINE", "Emergency", "Amp", 10},
	{"MED-EMER-005", "Lidocaine 2%", "MEDICINE", "Emergency", "Vial", 20},
	{"MED-EMER-006", "Calcium Gluconate 10%", "MEDICINE", "Emergency", "Amp", 20},
	{"MED-EMER-007", "Sodium Bicarbonate 8.4%", "MEDICINE", "Emergency", "Amp", 20},
	{"MED-EMER-008", "Dextrose 50%", "MEDICINE", "Emergency", "Amp", 20},
	{"MED-EMER-009", "Naloxone 0.4mg", "MEDICINE", "Emergency", "Amp", 10},
	{"MED-EMER-010", "Flumazenil 0.5mg", "MEDICINE", "Emergency", "Amp", 10},
	{"MED-EMER-011", "Vasopressin 20U", "MEDICINE", "Emergency", "Amp", 10},
	{"MED-EMER-012", "Dopamine 200mg", "MEDICINE", "Emergency", "Amp", 20},
	{"MED-EMER-013", "Norepinephrine 4mg", "MEDICINE", "Emergency", "Amp", 20},
	{"MED-EMER-014", "Dobutamine 250mg", "MEDICINE", "Emergency", "Vial", 10},
	{"MED-EMER-015", "Hydrocortisone 100mg", "MEDICINE", "Emergency", "Vial", 20},
	{"MED-EMER-016", "Diphenhydramine 30mg", "MEDICINE", "Emergency", "Amp", 20},
	{"MED-EMER-017", "Nitroglycerin 0.6mg SL", "MEDICINE", "Emergency", "Tab", 30},
	{"MED-EMER-018", "Aspirin 100mg", "MEDICINE", "Emergency", "Tab", 30},
	{"MED-EMER-019", "Aminophylline 250mg/10ml", "MEDICINE", "Emergency", "Amp", 20},

	{"MED-PAIN-001", "Acetaminophen 500mg", "MEDICINE", "General", "Tab", 200},
	{"MED-PAIN-002", "Ibuprofen 400mg", "MEDICINE", "General", "Tab", 100},
	{"MED-PAIN-003", "Diclofenac 25mg", "MEDICINE", "General", "Tab", 50},
	{"MED-PAIN-004", "Ketorolac 30mg/ml", "MEDICINE", "General", "Amp", 30},
	{"MED-PAIN-005", "Tramadol 50mg", "MEDICINE", "Controlled", "Cap", 50},
	{"MED-PAIN-006", "Morphine 10mg/ml", "MEDICINE", "Controlled", "Amp", 20},
	{"MED-PAIN-007", "Meperidine 50mg/ml", "MEDICINE", "Controlled", "Amp", 20},
	{"MED-PAIN-008", "Fentanyl 0.05mg/ml", "MEDICINE", "Controlled", "Amp", 20},
	{"MED-PAIN-009", "Nalbuphine 10mg/ml", "MEDICINE", "General", "Amp", 20},
	{"MED-PAIN-010", "Celecoxib 200mg", "MEDICINE", "General", "Cap", 30},

	{"MED-RESP-001", "Salbutamol MDI 100mcg", "MEDICINE", "General", "Inh", 10},
	{"MED-RESP-002", "Ipratropium MDI 20mcg", "MEDICINE", "General", "Inh", 10},
	{"MED-RESP-003", "Dextromethorphan 15mg", "MEDICINE", "General", "Tab", 100},
	{"MED-RESP-004", "Ambroxol 30mg", "MEDICINE", "General", "Tab", 100},

	{"MED-GI-001", "Omeprazole 20mg", "MEDICINE", "General", "Cap", 100},
	{"MED-GI-002", "Ranitidine 150mg", "MEDICINE", "General", "Tab", 100},
	{"MED-GI-003", "Metoclopramide 10mg", "MEDICINE", "General", "Tab", 50},
	{"MED-GI-004", "Metoclopramide 10mg/2ml", "MEDICINE", "General", "Amp", 30},
	{"MED-GI-005", "Loperamide 2mg", "MEDICINE", "General", "Cap", 50},
	{"MED-GI-006", "Sennoside 12mg", "MEDICINE", "General", "Tab", 100},
	{"MED-GI-007", "MgO 250mg", "MEDICINE", "General", "Tab", 100},

	{"MED-CV-001", "Furosemide 20mg", "MEDICINE", "General", "Tab", 50},
	{"MED-CV-002", "Furosemide 20mg/2ml", "MEDICINE", "General", "Amp", 30},
	{"MED-CV-003", "Amlodipine 5mg", "MEDICINE", "General", "Tab", 50},
	{"MED-CV-004", "Atenolol 50mg", "MEDICINE", "General", "Tab", 50},
	{"MED-CV-005", "Enalapril 10mg", "MEDICINE", "General", "Tab", 50},

	{"MED-ATB-001", "Amoxicillin 500mg", "MEDICINE", "General", "Cap", 100},
	{"MED-ATB-002", "Augmentin 375mg", "MEDICINE", "General", "Tab", 50},
	{"MED-ATB-003", "Cephalexin 500mg", "MEDICINE", "General", "Cap", 100},
	{"MED-ATB-004", "Ceftriaxone 1g", "MEDICINE", "General", "Vial", 30},
	{"MED-ATB-005", "Metronidazole 250mg", "MEDICINE", "General", "Tab", 50},
	{"MED-ATB-006", "Azithromycin 250mg", "MEDICINE", "General", "Tab", 30},
	{"MED-ATB-007", "Ciprofloxacin 500mg", "MEDICINE", "General", "Tab", 50},
	{"MED-ATB-008", "Tetanus Toxoid", "MEDICINE", "General", "Vial", 20},

	{"MED-ANES-001", "Propofol 200mg/20ml", "MEDICINE", "Anesthetic", "Amp", 20},
	{"MED-ANES-002", "Ketamine 500mg/10ml", "MEDICINE", "Anesthetic", "Vial", 10},
	{"MED-ANES-003", "Midazolam 5mg/ml", "MEDICINE", "Anesthetic", "Amp", 20},
	{"MED-ANES-004", "Etomidate 20mg/10ml", "MEDICINE", "Anesthetic", "Amp", 10},
	{"MED-ANES-005", "Succinylcholine 100mg", "MEDICINE", "Anesthetic", "Vial", 10},
	{"MED-ANES-006", "Rocuronium 50mg/5ml", "MEDICINE", "Anesthetic", "Vial", 10},
	{"MED-ANES-007", "Bupivacaine 0.5%", "MEDICINE", "Anesthetic", "Vial", 20},
	{"MED-ANES-008", "Lidocaine 2% (Local)", "MEDICINE", "Anesthetic", "Vial", 30},
	{"MED-ANES-009", "Neostigmine 0.5mg", "MEDICINE", "Anesthetic", "Amp", 20},
	{"MED-ANES-010", "Atracurium 25mg", "MEDICINE", "Anesthetic", "Amp", 20},

	{"MED-IV-001", "Normal Saline 500ml", "MEDICINE", "IV Fluids", "Bag", 100},
	{"MED-IV-002", "Normal Saline 1000ml", "MEDICINE", "IV Fluids", "Bag", 100},
	{"MED-IV-003", "Lactated Ringer 500ml", "MEDICINE", "IV Fluids", "Bag", 100},
	{"MED-IV-004", "Lactated Ringer 1000ml", "MEDICINE", "IV Fluids", "Bag", 100},
	{"MED-IV-005", "D5W 500ml", "MEDICINE", "IV Fluids", "Bag", 50},
	{"MED-IV-006", "D5W 1000ml", "MEDICINE", "IV Fluids", "Bag", 50},
	{"MED-IV-007", "D5NS 500ml", "MEDICINE", "IV Fluids", "Bag", 30},
	{"MED-IV-008", "D5NS 1000ml", "MEDICINE", "IV Fluids", "Bag", 30},
	{"MED-IV-009", "Mannitol 20% 250ml", "MEDICINE", "IV Fluids", "Bag", 20},

	{"MED-OTH-001", "Chlorpheniramine 4mg", "MEDICINE", "General", "Tab", 100},
	{"MED-OTH-002", "Loratadine 10mg", "MEDICINE", "General", "Tab", 50},
	{"MED-OTH-003", "Diazepam 5mg", "MEDICINE", "Controlled", "Tab", 30},
	{"MED-OTH-004", "Diazepam 10mg/2ml", "MEDICINE", "Controlled", "Amp", 20},
	{"MED-OTH-005", "Phenytoin 250mg/5ml", "MEDICINE", "General", "Amp", 10},
	{"MED-OTH-006", "Levetiracetam 500mg", "MEDICINE", "General", "Tab", 30},
	{"MED-OTH-007", "Dexamethasone 4mg/ml", "MEDICINE", "General", "Amp", 30},
	{"MED-OTH-008", "Methylprednisolone 40mg", "MEDICINE", "General", "Vial", 20},
	{"MED-OTH-009", "Vitamin K 10mg", "MEDICINE", "General", "Amp", 20},
	{"MED-OTH-010", "Tranexamic Acid 500mg", "MEDICINE", "General", "Amp", 30},
}

var consumables = []catalogItem{
	{"GAUZE-001", "Sterile Gauze 2x2", "CONSUMABLE", "Dressings", "Pack", 200},
	{"GAUZE-002", "Sterile Gauze 4x4", "CONSUMABLE", "Dressings", "Pack", 300},
	{"GAUZE-003", "Sterile Gauze 8x8", "CONSUMABLE", "Dressings", "Pack", 100},
	{"BAND-001", "Elastic Bandage 2in", "CONSUMABLE", "Dressings", "Roll", 50},
	{"BAND-002", "Elastic Bandage 3in", "CONSUMABLE", "Dressings", "Roll", 50},
	{"BAND-003", "Elastic Bandage 4in", "CONSUMABLE", "Dressings", "Roll", 50},
	{"TAPE-001", "Surgical Tape 1in", "CONSUMABLE", "Dressings", "Roll", 50},
	{"TAPE-002", "Surgical Tape 2in", "CONSUMABLE", "Dressings", "Roll", 30},

	{"SYR-001", "Syringe 1ml", "CONSUMABLE", "Injection", "Pc", 100},
	{"SYR-002", "Syringe 3ml", "CONSUMABLE", "Injection", "Pc", 200},
	{"SYR-003", "Syringe 5ml", "CONSUMABLE", "Injection", "Pc", 200},
	{"SYR-004", "Syringe 10ml", "CONSUMABLE", "Injection", "Pc", 100},
	{"SYR-005", "Syringe 20ml", "CONSUMABLE", "Injection", "Pc", 50},
	{"NDL-001", "Needle 18G", "CONSUMABLE", "Injection", "Pc", 100},
	{"NDL-002", "Needle 20G", "CONSUMABLE", "Injection", "Pc", 100},
	{"NDL-003", "Needle 22G", "CONSUMABLE", "Injection", "Pc", 100},
	{"NDL-004", "Needle 25G", "CONSUMABLE", "Injection", "Pc", 100},
	{"IVC-001", "IV Catheter 18G", "CONSUMABLE", "Injection", "Pc", 50},
	{"IVC-002", "IV Catheter 20G", "CONSUMABLE", "Injection", "Pc", 100},
	{"IVC-003", "IV Catheter 22G", "CONSUMABLE", "Injection", "Pc", 100},
	{"IVC-004", "IV Catheter 24G", "CONSUMABLE", "Injection", "Pc", 50},
	{"IVSET-001", "IV Infusion Set", "CONSUMABLE", "Injection", "Set", 100},
	{"IVSET-002", "Blood Transfusion Set", "CONSUMABLE", "Injection", "Set", 30},
	{"EXT-001", "Three-Way Stopcock", "CONSUMABLE", "Injection", "Ea", 50},

	{"PPE-001", "Surgical Mask", "CONSUMABLE", "PPE", "Box", 50},
	{"PPE-002", "N95 Respirator", "CONSUMABLE", "PPE", "Box", 20},
	{"PPE-003", "Latex Gloves M", "CONSUMABLE", "PPE", "Box", 30},
	{"PPE-004", "Latex Gloves L", "CONSUMABLE", "PPE", "Box", 30},
	{"PPE-005", "Isolation Gown", "CONSUMABLE", "PPE", "Ea", 50},
	{"PPE-006", "Face Shield", "CONSUMABLE", "PPE", "Ea", 20},
	{"PPE-007", "Safety Goggles", "CONSUMABLE", "PPE", "Ea", 10},

	{"CLEAN-001", "Irrigation Saline 250ml", "CONSUMABLE", "Cleaning", "Btl", 50},
	{"CLEAN-002", "Povidone-Iodine Solution", "CONSUMABLE", "Cleaning", "Btl", 20},
	{"CLEAN-003", "Alcohol 75%", "CONSUMABLE", "Cleaning", "Btl", 30},
	{"CLEAN-004", "Cotton Swabs", "CONSUMABLE", "Cleaning", "Pack", 100},
	{"CLEAN-005", "Cotton Balls", "CONSUMABLE", "Cleaning", "Pack", 50},

	{"SUTURE-001", "Vicryl 2-0", "CONSUMABLE", "Surgical", "Pc", 30},
	{"SUTURE-002", "Vicryl 3-0", "CONSUMABLE", "Surgical", "Pc", 30},
	{"SUTURE-003", "Vicryl 4-0", "CONSUMABLE", "Surgical", "Pc", 30},
	{"SUTURE-004", "Nylon 3-0", "CONSUMABLE", "Surgical", "Pc", 30},
	{"SUTURE-005", "Nylon 4-0", "CONSUMABLE", "Surgical", "Pc", 30},
	{"SUTURE-006", "Silk 3-0", "CONSUMABLE", "Surgical", "Pc", 20},

	{"AIRWAY-001", "ETT 6.5", "CONSUMABLE", "Airway", "Pc", 5},
	{"AIRWAY-002", "ETT 7.0", "CONSUMABLE", "Airway", "Pc", 10},
	{"AIRWAY-003", "ETT 7.5", "CONSUMABLE", "Airway", "Pc", 10},
	{"AIRWAY-004", "ETT 8.0", "CONSUMABLE", "Airway", "Pc", 5},
	{"AIRWAY-005", "LMA #3", "CONSUMABLE", "Airway", "Pc", 3},
	{"AIRWAY-006", "LMA #4", "CONSUMABLE", "Airway", "Pc", 5},
	{"AIRWAY-007", "Ambu Bag", "CONSUMABLE", "Airway", "Set", 5},
	{"AIRWAY-008", "Suction Catheter 12Fr", "CONSUMABLE", "Airway", "Pc", 50},
	{"AIRWAY-009", "Suction Catheter 14Fr", "CONSUMABLE", "Airway", "Pc", 50},
	{"AIRWAY-010", "Nasal Cannula", "CONSUMABLE", "Airway", "Pc", 30},
	{"AIRWAY-011", "Oxygen Mask", "CONSUMABLE", "Airway", "Ea", 20},

	{"CATH-001", "Foley Catheter 14Fr", "CONSUMABLE", "Catheters", "Pc", 10},
	{"CATH-002", "Foley Catheter 16Fr", "CONSUMABLE", "Catheters", "Pc", 20},
	{"CATH-003", "Foley Catheter 18Fr", "CONSUMABLE", "Catheters", "Pc", 10},
	{"CATH-004", "NG Tube 14Fr", "CONSUMABLE", "Catheters", "Pc", 20},
	{"CATH-005", "NG Tube 16Fr", "CONSUMABLE", "Catheters", "Pc", 20},
	{"CATH-006", "Chest Tube 28Fr", "CONSUMABLE", "Catheters", "Pc", 5},
	{"CATH-007", "Chest Tube 32Fr", "CONSUMABLE", "Catheters", "Pc", 5},
}

var equipmentRoster = []catalogEquipment{
	{"UTIL-001", "Portable Power Station", "Power", 1},
	{"UTIL-002", "Backup Generator", "Power", 1},
	{"UTIL-003", "Air Purifier", "Air", 1},
	{"UTIL-004", "RO Water Purifier", "Water", 1},
	{"UTIL-005", "Portable Refrigerator", "Cold Chain", 2},
	{"UTIL-006", "Medical Freezer", "Cold Chain", 1},

	{"DIAG-001", "Blood Pressure Monitor", "Diagnostics", 3},
	{"DIAG-002", "Infrared Thermometer", "Diagnostics", 5},
	{"DIAG-003", "Pulse Oximeter", "Diagnostics", 3},
	{"DIAG-004", "Stethoscope", "Diagnostics", 3},
	{"DIAG-005", "Glucose Meter", "Diagnostics", 2},
	{"DIAG-006", "12-Lead ECG", "Diagnostics", 1},

	{"EMER-EQ-001", "AED Defibrillator", "Resuscitation", 1},
	{"EMER-EQ-002", "Bag Valve Mask (Adult)", "Resuscitation", 2},
	{"EMER-EQ-003", "Bag Valve Mask (Pediatric)", "Resuscitation", 1},
	{"EMER-EQ-004", "Laryngoscope Set", "Resuscitation", 1},
	{"EMER-EQ-005", "Intubation Kit", "Resuscitation", 1},
	{"EMER-EQ-006", "Oxygen Cylinder E", "Resuscitation", 2},
	{"EMER-EQ-007", "Suction Unit", "Resuscitation", 1},
	{"EMER-EQ-008", "Spine Board", "Resuscitation", 2},
	{"EMER-EQ-009", "Cervical Collar Set", "Resuscitation", 5},

	{"BORP-SURG-001", "Basic Surgical Pack I", "Surgical Instruments", 8},
	{"BORP-SURG-002", "Basic Surgical Pack II", "Surgical Instruments", 8},
	{"BORP-SURG-003", "Orthopedic Pack", "Surgical Instruments", 8},
	{"BORP-SURG-004", "Laparotomy Support Pack", "Surgical Instruments", 8},
	{"BORP-SURG-005", "Abdominal Retractor", "Surgical Instruments", 8},
	{"BORP-SURG-006", "Thoracotomy Pack", "Surgical Instruments", 1},
	{"BORP-SURG-007", "Vascular Pack", "Surgical Instruments", 3},
	{"BORP-SURG-008", "Cardiac Pack", "Surgical Instruments", 4},
	{"BORP-SURG-009", "ASSET Pack", "Surgical Instruments", 8},
	{"BORP-SURG-010", "Skin Closure Pack", "Surgical Instruments", 2},
	{"BORP-SURG-011", "Tracheostomy Pack", "Surgical Instruments", 8},
	{"BORP-SURG-012", "Bulldog Vascular Clamps", "Surgical Instruments", 4},
	{"BORP-SURG-013", "Manual Cranial Drill", "Surgical Instruments", 1},
	{"BORP-SURG-014", "Powered Bone Tool Set", "Surgical Instruments", 1},
	{"BORP-SURG-015", "Battery Bone Drill", "Surgical Instruments", 1},
	{"BORP-SURG-016", "Battery Bone Saw", "Surgical Instruments", 3},

	{"RESP-001", "Oxygen Cylinder", "Respiratory", 5},
	{"RESP-002", "Oxygen Concentrator", "Respiratory", 2},
	{"RESP-003", "Transport Ventilator", "Respiratory", 1},
	{"RESP-004", "Nebulizer", "Respiratory", 3},

	{"INF-001", "IV Pole", "Infusion", 10},
	{"INF-002", "Infusion Pump", "Infusion", 5},
	{"INF-003", "Blood Warmer", "Infusion", 1},

	{"TRANS-001", "Wheelchair", "Transport", 3},
	{"TRANS-002", "Stretcher", "Transport", 5},
	{"TRANS-003", "Long Spine Board", "Transport", 3},
	{"TRANS-004", "Cervical Collars", "Transport", 5},
	{"TRANS-005", "Splint Set", "Transport", 5},

	{"OTH-001", "Medicine Refrigerator", "Storage", 1},
	{"OTH-002", "Blood Bank Refrigerator", "Storage", 1},
}
